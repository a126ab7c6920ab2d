package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jinford/shiori/internal/core/auth"
	"github.com/jinford/shiori/internal/core/conversation"
	"github.com/jinford/shiori/internal/core/importing"
	"github.com/jinford/shiori/internal/core/library"
	"github.com/jinford/shiori/internal/core/retrieval"
)

// Config はHTTPサーバーの設定
type Config struct {
	Port           int
	AllowedOrigins []string
}

// Server はREST APIを提供するHTTPサーバー
type Server struct {
	cfg           Config
	auth          *auth.Service
	library       *library.Service
	importing     *importing.Service
	conversations *conversation.Service
	retrieval     *retrieval.Service
	logger        *slog.Logger
}

// New は新しい Server を作成する
func New(
	cfg Config,
	authService *auth.Service,
	libraryService *library.Service,
	importService *importing.Service,
	conversationService *conversation.Service,
	retrievalService *retrieval.Service,
	logger *slog.Logger,
) *Server {
	return &Server{
		cfg:           cfg,
		auth:          authService,
		library:       libraryService,
		importing:     importService,
		conversations: conversationService,
		retrieval:     retrievalService,
		logger:        logger,
	}
}

// Router はルーティングを組み立てたginエンジンを返す
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/register", s.handleRegister)
	router.POST("/login", s.handleLogin)
	router.POST("/refresh", s.handleRefresh)

	authorized := router.Group("/", s.requireAuth())
	{
		authorized.POST("/logout", s.handleLogout)
		authorized.GET("/me", s.handleMe)

		authorized.GET("/books", s.handleListBooks)
		authorized.GET("/documents", s.handleListDocuments)
		authorized.GET("/documents/:id", s.handleGetDocument)
		authorized.DELETE("/documents/:id", s.handleDeleteDocument)
		authorized.GET("/documents/:id/related", s.handleRelatedDocuments)

		authorized.POST("/import/kindle", s.handleImportKindle)
		authorized.POST("/import/readwise", s.handleImportReadwise)

		authorized.POST("/conversation", s.handleCreateConversation)
		authorized.GET("/conversation", s.handleListConversations)
		authorized.GET("/conversation/:id", s.handleGetConversation)
		authorized.POST("/conversation/:id/completion", s.handleCompletion)
		authorized.GET("/message/:id", s.handleGetMessage)
	}

	return router
}

// Run はHTTPサーバーを起動し、ctxのキャンセルでグレースフルに停止する
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", slog.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}
