package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
)

type PostHandler struct {
	postService *services.PostService
	likeService *services.LikeService
	logger      *logger.Logger
}

func NewPostHandler(postService *services.PostService, likeService *services.LikeService, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		likeService: likeService,
		logger:      logger,
	}
}

func (h *PostHandler) GetFeed(c *gin.Context) {
	posts, err := h.postService.ListFeed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	posts, err := h.postService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch user posts")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	postID, err := h.postService.CreatePost(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"postId":  postID,
	})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.postService.UpdatePost(c.Request.Context(), middleware.GetUserID(c), postID, &req); err != nil {
		respondError(c, h.logger, err, "Failed to update post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully"})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), middleware.GetUserID(c), postID); err != nil {
		respondError(c, h.logger, err, "Failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) LikePost(c *gin.Context) {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return
	}

	if err := h.likeService.LikePost(c.Request.Context(), middleware.GetUserID(c), postID); err != nil {
		respondError(c, h.logger, err, "Failed to like post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post liked successfully"})
}

func (h *PostHandler) UnlikePost(c *gin.Context) {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return
	}

	if err := h.likeService.UnlikePost(c.Request.Context(), middleware.GetUserID(c), postID); err != nil {
		respondError(c, h.logger, err, "Failed to unlike post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post unliked successfully"})
}
