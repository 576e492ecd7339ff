package router

import (
	"github.com/gin-gonic/gin"
	"github.com/linkablog/internal/db"
	"github.com/linkablog/internal/handler"
)

// Setup 配置 Gin 引擎和路由
func Setup(api *handler.API) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	base := r.Group("/linka-blog")
	{
		auth := base.Group("/auth")
		{
			auth.POST("/sign-up", handler.RateLimit(5), api.SignUp)
			auth.POST("/login", handler.RateLimit(5), api.Login)
			auth.POST("/verify", api.Verify)
			auth.POST("/forgot-password", handler.RateLimit(5), api.ForgotPassword)
			auth.POST("/reset-password", api.ResetPassword)
		}

		// 需要认证的路由
		post := base.Group("/post")
		post.Use(api.AuthRequired())
		{
			post.POST("/create", handler.RequireRoles(db.RoleRWXUser), api.CreatePost)
			post.GET("/single", handler.RequireRoles(db.RoleRWXUser, db.RoleRWUser, db.RoleRUser), api.GetPost)
			post.GET("/all", handler.RequireRoles(db.RoleRWXUser, db.RoleRWUser, db.RoleRUser), api.GetPosts)
			post.PATCH("/edit", handler.RequireRoles(db.RoleRWXUser), api.EditPost)
			post.DELETE("/delete", handler.RequireRoles(db.RoleRWXUser), api.DeletePost)
		}

		engagement := base.Group("/engagement")
		engagement.Use(api.AuthRequired())
		{
			engagement.POST("/create", handler.RequireRoles(db.RoleRWXUser, db.RoleRWUser, db.RoleRUser), api.CreateEngagement)
			engagement.DELETE("/delete", handler.RequireRoles(db.RoleRWXUser), api.DeleteEngagement)
		}

		profile := base.Group("/profile")
		profile.Use(api.AuthRequired())
		{
			profile.POST("/avatar", api.UploadAvatar)
		}
	}

	return r
}
