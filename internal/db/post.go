package db

import "gorm.io/gorm"

// Post 定义了文章模型。点赞/浏览/评论计数为反规范化字段，
// 与 Engagement 流水由 EngagementService 成对维护。
type Post struct {
	gorm.Model
	Title         string `gorm:"not null"`
	Content       string `gorm:"not null"`
	CreatorID     uint   `gorm:"not null;index"`
	Creator       User   `gorm:"foreignKey:CreatorID"`
	LikesCount    int64  `gorm:"default:0"`
	ViewsCount    int64  `gorm:"default:0"`
	CommentsCount int64  `gorm:"default:0"`
}
