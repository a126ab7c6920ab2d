package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/shiori/internal/core/auth"
	"github.com/jinford/shiori/internal/core/conversation"
	"github.com/jinford/shiori/internal/core/importing"
	"github.com/jinford/shiori/internal/core/indexing"
	"github.com/jinford/shiori/internal/core/library"
	"github.com/jinford/shiori/internal/core/retrieval"
	"github.com/jinford/shiori/internal/infra/openai"
	"github.com/jinford/shiori/internal/infra/postgres"
	"github.com/jinford/shiori/internal/platform/config"
	"github.com/jinford/shiori/internal/platform/database"
	"github.com/jinford/shiori/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB

	Auth          *auth.Service
	Library       *library.Service
	Importing     *importing.Service
	Indexing      *indexing.Service
	Retrieval     *retrieval.Service
	Conversations *conversation.Service
}

// NewAppContext は設定ファイルを読み込み、DBに接続して全サービスを
// 組み立てた AppContext を作成する
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.DefaultConfig())

	db, err := database.New(ctx, database.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	embedder, err := openai.NewEmbedder(
		cfg.OpenAI.APIKey,
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		openai.WithEmbeddingMaxTokens(cfg.OpenAI.EmbeddingMaxTokens),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("Embedderの初期化に失敗: %w", err)
	}

	llmClient, err := openai.NewClient(cfg.OpenAI.APIKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("LLMクライアントの初期化に失敗: %w", err)
	}

	chunker, err := indexing.NewSentenceChunker(
		cfg.Index.MaxSentences,
		cfg.Index.GroupOverlap,
		cfg.Index.MinCharacters,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("チャンカーの初期化に失敗: %w", err)
	}

	libraryRepo := postgres.NewLibraryRepository(db.Pool)
	chunkRepo := postgres.NewChunkRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	conversationRepo := postgres.NewConversationRepository(db.Pool)
	txProvider := postgres.NewConversationTxProvider(db.Pool)

	tokenManager := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	authService := auth.NewService(userRepo, tokenManager, auth.WithLogger(appLogger))
	libraryService := library.NewService(libraryRepo, library.WithLogger(appLogger))
	indexingService := indexing.NewService(chunkRepo, chunker, embedder, indexing.WithLogger(appLogger))
	importService := importing.NewService(libraryRepo, indexingService, importing.WithLogger(appLogger))
	retrievalService := retrieval.NewService(
		chunkRepo,
		embedder,
		cfg.Retrieval.TopK,
		cfg.Retrieval.ThresholdScore,
		retrieval.WithLogger(appLogger),
	)
	conversationService := conversation.NewService(
		conversationRepo,
		txProvider,
		llmClient,
		retrievalService,
		libraryService,
		conversation.Config{
			AnswerModel:        cfg.OpenAI.AnswerModel,
			DecompositionModel: cfg.OpenAI.DecompositionModel,
			MaxVariants:        cfg.Retrieval.MaxVariants,
		},
		conversation.WithLogger(appLogger),
	)

	return &AppContext{
		Config:        cfg,
		Logger:        appLogger,
		DB:            db,
		Auth:          authService,
		Library:       libraryService,
		Importing:     importService,
		Indexing:      indexingService,
		Retrieval:     retrievalService,
		Conversations: conversationService,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.DB != nil {
		ac.DB.Close()
	}
}
