package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createEngagementRequest struct {
	PostID  uint   `json:"post_id" binding:"required"`
	Flag    string `json:"flag" binding:"required"`
	Comment string `json:"comment"`
}

type deleteEngagementRequest struct {
	PostID uint   `json:"post_id" binding:"required"`
	Flag   string `json:"flag" binding:"required"`
}

// CreateEngagement 记录一次互动并同步文章计数。
func (a *API) CreateEngagement(c *gin.Context) {
	var req createEngagementRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := a.engagements.Create(req.PostID, req.Flag, currentUserID(c), req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, message, nil)
}

// DeleteEngagement 撤销一次互动并同步文章计数。
func (a *API) DeleteEngagement(c *gin.Context) {
	var req deleteEngagementRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := a.engagements.Delete(req.PostID, req.Flag, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, message, nil)
}
