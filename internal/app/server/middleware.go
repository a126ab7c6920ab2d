package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinford/shiori/internal/core/auth"
)

// currentUserKey は認証済みユーザーをginコンテキストに保持するキー
const currentUserKey = "currentUser"

// requireAuth はAuthorizationヘッダのBearerトークンを検証し、
// 認証済みユーザーをコンテキストに格納するミドルウェアを返す
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication token is required"})
			return
		}

		user, err := s.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			}
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser はコンテキストから認証済みユーザーを取り出す
func currentUser(c *gin.Context) *auth.User {
	return c.MustGet(currentUserKey).(*auth.User)
}

// currentUserID はコンテキストから認証済みユーザーのIDを取り出す
func currentUserID(c *gin.Context) uuid.UUID {
	return currentUser(c).ID
}
