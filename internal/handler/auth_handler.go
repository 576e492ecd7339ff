package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkablog/internal/service"
)

type signUpRequest struct {
	FirstName string `json:"first_name" binding:"required,min=3"`
	LastName  string `json:"last_name" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=3"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	VerID string `json:"ver_id"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=3"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Code            string `json:"code" binding:"required"`
}

// SignUp 处理注册请求
func (a *API) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.auth.SignUp(service.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Successfully signed up", gin.H{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	})
}

// Login 处理登录请求
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, _, err := a.auth.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Successfully logged in", token)
}

// Verify 处理邮箱验证，兼容 query 与 body 两种 ver_id 传递方式。
func (a *API) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}

	verID := req.VerID
	if verID == "" {
		verID = c.Query("ver_id")
	}
	if verID == "" {
		respondError(c, http.StatusBadRequest, "ver_id is required")
		return
	}

	if err := a.auth.Verify(req.Email, verID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Successfully verified user", nil)
}

// ForgotPassword 处理找回密码请求
func (a *API) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.auth.ForgotPassword(req.Email); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Password reset token successfully sent", nil)
}

// ResetPassword 处理重置密码请求
func (a *API) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.auth.ResetPassword(service.ResetPasswordInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Code:            req.Code,
	}); err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Password successfully reset", nil)
}
