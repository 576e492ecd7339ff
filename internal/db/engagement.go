package db

import (
	"time"

	"gorm.io/gorm"
)

// Engagement 记录单次互动流水，类型对应的时间戳字段恰好填一个。
type Engagement struct {
	gorm.Model
	Type        string `gorm:"not null;index:idx_engagements_lookup"`
	PostID      uint   `gorm:"not null;index:idx_engagements_lookup"`
	Post        Post   `gorm:"foreignKey:PostID"`
	Engager     uint   `gorm:"not null;index:idx_engagements_lookup"`
	Comment     string
	LikedAt     *time.Time
	ViewedAt    *time.Time
	CommentedAt *time.Time
}
