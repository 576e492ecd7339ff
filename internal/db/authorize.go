package db

import "gorm.io/gorm"

// Authorize 保存短期凭证：注册验证使用 VerID，找回密码使用 6 位 Code。
// 每条记录一次性使用，验证或重置成功（或过期）后删除。
type Authorize struct {
	gorm.Model
	Email string `gorm:"not null;index"`
	VerID string
	Code  string
}
