package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
)

type CommentHandler struct {
	commentService *services.CommentService
	logger         *logger.Logger
}

func NewCommentHandler(commentService *services.CommentService, logger *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

func (h *CommentHandler) GetPostComments(c *gin.Context) {
	postID, ok := parseID(c, "postId", "post")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	commentID, err := h.commentService.CreateComment(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Comment created successfully",
		"commentId": commentID,
	})
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := parseID(c, "commentId", "comment")
	if !ok {
		return
	}

	var req services.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.commentService.UpdateComment(c.Request.Context(), middleware.GetUserID(c), commentID, &req); err != nil {
		respondError(c, h.logger, err, "Failed to update comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment updated successfully"})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := parseID(c, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), middleware.GetUserID(c), commentID); err != nil {
		respondError(c, h.logger, err, "Failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
