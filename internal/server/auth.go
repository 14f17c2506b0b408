package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// codeCtxKey is the gin context key holding the authenticated account code.
const codeCtxKey = "account_code"

// requireAuth enforces bearer-token authentication and resolves the token to
// its account code for downstream handlers.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			return
		}

		code, ok, err := s.store.CodeForToken(c.Request.Context(), parts[1])
		if err != nil {
			s.log.Error().Err(err).Msg("token lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(codeCtxKey, code)
		c.Next()
	}
}

// accountCode returns the authenticated account code from the request
// context.
func accountCode(c *gin.Context) string {
	v, _ := c.Get(codeCtxKey)
	s, _ := v.(string)
	return s
}
