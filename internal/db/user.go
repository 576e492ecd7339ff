package db

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色，admin 拥有全部权限，其余按读/写/执行能力递减
const (
	RoleAdmin   = "admin"
	RoleRWXUser = "rwx_user"
	RoleRWUser  = "rw_user"
	RoleRUser   = "r_user"
)

// User 定义了用户模型
type User struct {
	gorm.Model
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Email        string `gorm:"unique;not null"`
	Password     string `gorm:"not null"`
	Role         string `gorm:"default:rwx_user"`
	Verified     bool   `gorm:"default:false"`
	Avatar       string
	LoginCount   int `gorm:"default:0"`
	LastLoggedIn *time.Time
}
