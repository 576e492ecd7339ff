package service

import (
	"errors"
	"strings"
	"time"

	"github.com/linkablog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidFlag        = errors.New("invalid engagement flag")
	ErrCommentRequired    = errors.New("comment is required")
	ErrAlreadyLiked       = errors.New("post already liked")
	ErrEngagementNotFound = errors.New("engagement not found")
)

// EngagementKind 枚举互动类型。
type EngagementKind string

const (
	EngagementView    EngagementKind = "view"
	EngagementLike    EngagementKind = "like"
	EngagementComment EngagementKind = "comment"
)

// kindCounters 给出每种互动类型对应的文章计数列，覆盖全部枚举值。
var kindCounters = map[EngagementKind]string{
	EngagementLike:    "likes_count",
	EngagementView:    "views_count",
	EngagementComment: "comments_count",
}

// deleteFlags 映射撤销型 flag 到其对应的流水类型。浏览不可撤销。
var deleteFlags = map[string]EngagementKind{
	"unlike":         EngagementLike,
	"delete_comment": EngagementComment,
}

var createMessages = map[EngagementKind]string{
	EngagementLike:    "Successfully liked post",
	EngagementView:    "Successfully viewed post",
	EngagementComment: "Successfully commented on post",
}

var deleteMessages = map[EngagementKind]string{
	EngagementLike:    "Successfully un-liked post",
	EngagementComment: "Successfully deleted comment on post",
}

// EngagementService 负责互动流水与文章反规范化计数的成对一致更新。
type EngagementService struct {
	db *gorm.DB
}

// NewEngagementService creates an EngagementService instance.
func NewEngagementService(gdb *gorm.DB) *EngagementService {
	return &EngagementService{db: gdb}
}

// ParseEngagementKind 校验创建型 flag。
func ParseEngagementKind(flag string) (EngagementKind, bool) {
	kind := EngagementKind(strings.TrimSpace(flag))
	_, ok := kindCounters[kind]
	return kind, ok
}

// Create 写入一条互动流水并将对应计数 +1，两者在同一事务中提交。
// 同一用户对同一文章的重复点赞会被拒绝；浏览与评论不限次数。
func (s *EngagementService) Create(postID uint, flag string, engager uint, comment string) (string, error) {
	kind, ok := ParseEngagementKind(flag)
	if !ok {
		return "", ErrInvalidFlag
	}

	comment = strings.TrimSpace(comment)
	if kind == EngagementComment && comment == "" {
		return "", ErrCommentRequired
	}
	if kind != EngagementComment {
		comment = ""
	}

	now := time.Now()
	engagement := db.Engagement{
		Type:    string(kind),
		PostID:  postID,
		Engager: engager,
		Comment: comment,
	}
	switch kind {
	case EngagementLike:
		engagement.LikedAt = &now
	case EngagementView:
		engagement.ViewedAt = &now
	case EngagementComment:
		engagement.CommentedAt = &now
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if kind == EngagementLike {
			var count int64
			if err := tx.Model(&db.Engagement{}).
				Where("post_id = ? AND engager = ? AND type = ?", postID, engager, EngagementLike).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyLiked
			}
		}

		if err := tx.Create(&engagement).Error; err != nil {
			return err
		}

		column := kindCounters[kind]
		return tx.Model(&db.Post{}).
			Where("id = ?", postID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	}); err != nil {
		return "", err
	}

	return createMessages[kind], nil
}

// Delete 撤销一条互动：删除匹配的流水并将计数 -1（到 0 封底），同一事务提交。
func (s *EngagementService) Delete(postID uint, flag string, engager uint) (string, error) {
	kind, ok := deleteFlags[strings.TrimSpace(flag)]
	if !ok {
		return "", ErrInvalidFlag
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var engagement db.Engagement
		if err := tx.Where("post_id = ? AND engager = ? AND type = ?", postID, engager, kind).
			Order("id desc").
			First(&engagement).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEngagementNotFound
			}
			return err
		}

		if err := tx.Unscoped().Delete(&engagement).Error; err != nil {
			return err
		}

		// 并发重复撤销时封底到 0，不允许计数为负
		column := kindCounters[kind]
		return tx.Model(&db.Post{}).
			Where("id = ?", postID).
			UpdateColumn(column, gorm.Expr("CASE WHEN "+column+" > 0 THEN "+column+" - 1 ELSE 0 END")).Error
	}); err != nil {
		return "", err
	}

	return deleteMessages[kind], nil
}
