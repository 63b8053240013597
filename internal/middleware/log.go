package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

// AccessLogMiddleware records every mutating call made by a logged-in user.
// Reads are not logged.
func AccessLogMiddleware(db *gorm.DB, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			return
		}

		path := c.Request.URL.Path
		entry := models.AccessLog{
			UserID:    user.ID,
			Action:    c.Request.Method + " " + path,
			Method:    c.Request.Method,
			Path:      path,
			IP:        c.ClientIP(),
			UserAgent: truncate(c.Request.UserAgent(), 255),
			Status:    c.Writer.Status(),
		}
		if err := db.Create(&entry).Error; err != nil {
			logger.WithFields(logrus.Fields{
				"user_id": user.ID,
				"path":    path,
			}).WithError(err).Warn("write access log")
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
