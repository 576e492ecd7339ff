package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkablog/internal/db"
	"github.com/linkablog/internal/service"
)

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type editPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type postView struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ContentHTML   string    `json:"content_html,omitempty"`
	Creator       uint      `json:"creator"`
	LikesCount    int64     `json:"likesCount"`
	ViewsCount    int64     `json:"viewsCount"`
	CommentsCount int64     `json:"commentsCount"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPostView(post *db.Post, withHTML bool) postView {
	view := postView{
		ID:            post.ID,
		Title:         post.Title,
		Content:       post.Content,
		Creator:       post.CreatorID,
		LikesCount:    post.LikesCount,
		ViewsCount:    post.ViewsCount,
		CommentsCount: post.CommentsCount,
		CreatedAt:     post.CreatedAt,
	}
	if withHTML {
		view.ContentHTML = service.RenderMarkdown(post.Content)
	}
	return view
}

// CreatePost 处理新建文章请求
func (a *API) CreatePost(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := a.blog.Create(service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		CreatorID: currentUserID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Successfully drafted blog post", toPostView(post, false))
}

// GetPost 返回单篇文章，附带渲染后的 HTML。
func (a *API) GetPost(c *gin.Context) {
	postID, ok := parseUintQuery(c, "post_id")
	if !ok {
		return
	}

	post, err := a.blog.Get(postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Successfully retrieved blog post", toPostView(post, true))
}

// GetPosts 分页返回文章列表，支持标题搜索。
func (a *API) GetPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := a.blog.List(service.PostFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	views := make([]postView, 0, len(result.Posts))
	for i := range result.Posts {
		views = append(views, toPostView(&result.Posts[i], false))
	}

	respondData(c, http.StatusOK, "Successfully retrieved posts in batches", gin.H{
		"posts":       views,
		"total":       result.Total,
		"page":        result.Page,
		"limit":       result.Limit,
		"total_pages": result.TotalPages,
	})
}

// EditPost 处理编辑文章请求
func (a *API) EditPost(c *gin.Context) {
	postID, ok := parseUintQuery(c, "post_id")
	if !ok {
		return
	}

	var req editPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := a.blog.Edit(postID, service.PostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Successfully edited blog post", toPostView(post, false))
}

// DeletePost 处理删除文章请求
func (a *API) DeletePost(c *gin.Context) {
	postID, ok := parseUintQuery(c, "post_id")
	if !ok {
		return
	}

	if err := a.blog.Delete(postID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Successfully deleted blog post", nil)
}
