package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy_console/internal/session"
)

// requireSession parses the bearer token and puts the session on the request
// context, where the backend client picks it up.
func requireSession(parser *session.Parser, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := parser.Parse(c.GetHeader("Authorization"))
		if err != nil {
			logger.Debug("rejected request without a valid session", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

func sessionOf(c *gin.Context) session.Session {
	s, _ := session.FromContext(c.Request.Context())
	return s
}
