package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/pkg/logger"
)

type Handlers struct {
	Auth     *AuthHandler
	Posts    *PostHandler
	Comments *CommentHandler
	Users    *UserHandler
}

// NewRouter mounts every route. Mutating and ownership-scoped routes sit
// behind the JWT gate.
func NewRouter(h *Handlers, tokens *middleware.TokenService, metrics *middleware.Metrics, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(log))
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	router.GET("/metrics", metrics.Handler())

	auth := middleware.NewJWTAuth(tokens)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	posts := router.Group("/posts")
	{
		posts.GET("", h.Posts.GetFeed)
		posts.GET("/user/:userId", h.Posts.GetUserPosts)
		posts.POST("", auth, h.Posts.CreatePost)
		posts.PUT("/:postId", auth, h.Posts.UpdatePost)
		posts.DELETE("/:postId", auth, h.Posts.DeletePost)
		posts.POST("/:postId/like", auth, h.Posts.LikePost)
		posts.POST("/:postId/unlike", auth, h.Posts.UnlikePost)
	}

	comments := router.Group("/comments")
	{
		comments.GET("/post/:postId", h.Comments.GetPostComments)
		comments.POST("", auth, h.Comments.CreateComment)
		comments.PUT("/:commentId", auth, h.Comments.UpdateComment)
		comments.DELETE("/:commentId", auth, h.Comments.DeleteComment)
	}

	users := router.Group("/users")
	{
		users.GET("/:userId", h.Users.GetProfile)
		users.GET("/:userId/activity", h.Users.GetActivity)
		users.PUT("/:userId", auth, h.Users.UpdateProfile)
		users.POST("/:userId/follow", auth, h.Users.Follow)
		users.POST("/:userId/unfollow", auth, h.Users.Unfollow)
	}

	return router
}
