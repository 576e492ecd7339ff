package service

import (
	"errors"
	"strings"

	"github.com/linkablog/internal/db"
	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

// BlogService wraps post related database operations.
type BlogService struct {
	db *gorm.DB
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title     string
	Content   string
	CreatorID uint
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search string
	Page   int
	Limit  int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}

// NewBlogService creates a BlogService instance.
func NewBlogService(gdb *gorm.DB) *BlogService {
	return &BlogService{db: gdb}
}

// Create persists a new blog post.
func (s *BlogService) Create(input PostInput) (*db.Post, error) {
	post := db.Post{
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		CreatorID: input.CreatorID,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Get fetches a post by id with its creator preloaded.
func (s *BlogService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Creator").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// List provides paginated posts ordered newest first, with an optional
// case-insensitive title substring search.
func (s *BlogService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, Limit: filter.Limit}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.Limit <= 0 {
		result.Limit = 10
	}

	modelQuery := s.applySearch(s.db.Model(&db.Post{}), filter.Search)
	if err := modelQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.Limit

	var posts []db.Post
	dataQuery := s.applySearch(s.db.Model(&db.Post{}).Preload("Creator"), filter.Search)
	if err := dataQuery.
		Order("created_at desc, id desc").
		Limit(result.Limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.Limit) - 1) / int64(result.Limit))
	}

	result.Posts = posts
	return result, nil
}

func (s *BlogService) applySearch(query *gorm.DB, search string) *gorm.DB {
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}
	return query
}

// Edit applies title/content updates to an existing post.
func (s *BlogService) Edit(id uint, input PostInput) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		existing.Title = title
	}
	if input.Content != "" {
		existing.Content = input.Content
	}

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Delete removes a post by id.
func (s *BlogService) Delete(id uint) error {
	result := s.db.Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
