package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
)

type AuthHandler struct {
	userService *services.UserService
	tokens      *middleware.TokenService
	logger      *logger.Logger
}

func NewAuthHandler(userService *services.UserService, tokens *middleware.TokenService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Registration failed")
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		respondError(c, h.logger, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"userId":  userID,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err, "Login failed")
		return
	}

	// 生成JWT token
	token, err := h.tokens.Issue(userID)
	if err != nil {
		respondError(c, h.logger, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"userId":  userID,
	})
}
