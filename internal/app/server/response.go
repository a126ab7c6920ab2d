package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinford/shiori/internal/core/auth"
	"github.com/jinford/shiori/internal/core/conversation"
	"github.com/jinford/shiori/internal/core/library"
)

// respondError はドメインエラーをHTTPステータスに写像して返す
func (s *Server) respondError(c *gin.Context, err error) {
	var lmErr *conversation.LanguageModelError

	switch {
	case errors.Is(err, library.ErrBookNotFound),
		errors.Is(err, library.ErrDocumentNotFound),
		errors.Is(err, conversation.ErrConversationNotFound),
		errors.Is(err, conversation.ErrMessageNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, conversation.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.As(err, &lmErr):
		s.logger.ErrorContext(c.Request.Context(), "language model call failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "language model request failed"})

	default:
		s.logger.ErrorContext(c.Request.Context(), "internal error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
