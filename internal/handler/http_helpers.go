package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/linkablog/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"statusCode": status, "message": message})
}

func respondData(c *gin.Context, status int, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, gin.H{"message": message, "data": data})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func parseUintQuery(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return uint(id), true
}

// respondServiceError 将服务层哨兵错误映射为统一的错误响应。
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrEngagementNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrAlreadyLiked):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrInvalidFlag),
		errors.Is(err, service.ErrCommentRequired),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrVerificationNotFound),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrPasswordMismatch):
		status = http.StatusBadRequest
		message = err.Error()
	}

	respondError(c, status, message)
}
