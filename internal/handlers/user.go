package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
)

type UserHandler struct {
	userService     *services.UserService
	followService   *services.FollowService
	activityService *services.ActivityService
	logger          *logger.Logger
}

func NewUserHandler(userService *services.UserService, followService *services.FollowService, activityService *services.ActivityService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService:     userService,
		followService:   followService,
		activityService: activityService,
		logger:          logger,
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch user profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), userID, &req); err != nil {
		respondError(c, h.logger, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

func (h *UserHandler) Follow(c *gin.Context) {
	followingID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.followService.Follow(c.Request.Context(), middleware.GetUserID(c), followingID); err != nil {
		respondError(c, h.logger, err, "Failed to follow user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Followed successfully"})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	followingID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), middleware.GetUserID(c), followingID); err != nil {
		respondError(c, h.logger, err, "Failed to unfollow user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully"})
}

// GetActivity returns the per-event counters kept by the activity worker.
func (h *UserHandler) GetActivity(c *gin.Context) {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	stats, err := h.activityService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch user activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"activity": stats,
	})
}
