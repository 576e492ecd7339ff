package handler

import (
	"github.com/linkablog/internal/config"
	"github.com/linkablog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	auth        *service.AuthService
	blog        *service.BlogService
	engagements *service.EngagementService
	tokens      *service.TokenService
	uploadDir   string
	uploadURL   string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	mailer := service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	return &API{
		db:          gdb,
		auth:        service.NewAuthService(gdb, mailer, tokens, cfg.SiteBaseURL),
		blog:        service.NewBlogService(gdb),
		engagements: service.NewEngagementService(gdb),
		tokens:      tokens,
		uploadDir:   cfg.UploadDir,
		uploadURL:   cfg.UploadURLPath,
	}
}
