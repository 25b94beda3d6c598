package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/social-media/social-backend/internal/middleware"
	"github.com/social-media/social-backend/internal/services"
	"github.com/social-media/social-backend/pkg/logger"
)

// 对外错误文案，不暴露存储层细节
var publicMessages = []struct {
	err error
	msg string
}{
	{services.ErrMissingFields, "Missing required fields"},
	{services.ErrMissingCredentials, "Email and password required"},
	{services.ErrContentRequired, "Content is required"},
	{services.ErrSelfFollow, "Cannot follow yourself"},
	{services.ErrInvalidCredentials, "Invalid credentials"},
	{services.ErrForbidden, "Unauthorized"},
	{services.ErrUserNotFound, "User not found"},
	{services.ErrPostNotFound, "Post not found"},
	{services.ErrCommentNotFound, "Comment not found"},
	{services.ErrUserExists, "User already exists"},
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindBadRequest, services.KindConflict:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the public form of err. Anything the service layer did
// not classify is logged and reported with internalMsg.
func respondError(c *gin.Context, log *logger.Logger, err error, internalMsg string) {
	status := statusFor(services.KindOf(err))
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"request_id": middleware.GetRequestID(c),
		}).Error(internalMsg)
		c.JSON(status, gin.H{"error": internalMsg})
		return
	}

	for _, m := range publicMessages {
		if errors.Is(err, m.err) {
			c.JSON(status, gin.H{"error": m.msg})
			return
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes the request body into req. An empty body leaves req at its
// zero value so the service reports which fields are missing.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, param, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return uint(id), true
}
