package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Service はライブラリ閲覧のビジネスロジックを提供する
type Service struct {
	repo   Repository
	logger *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger は Service にロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:   repo,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// ListBooks はユーザーのライブラリに含まれる書籍一覧を返す
func (s *Service) ListBooks(ctx context.Context, userID uuid.UUID) ([]*Book, error) {
	books, err := s.repo.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// SearchBooks はタイトル・著者へのキーワード検索を行う
func (s *Service) SearchBooks(ctx context.Context, userID uuid.UUID, keyword string) ([]*Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	books, err := s.repo.SearchBooks(ctx, userID, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	return books, nil
}

// ListDocuments はユーザーの全文書を返す
func (s *Service) ListDocuments(ctx context.Context, userID uuid.UUID) ([]*Document, error) {
	docs, err := s.repo.ListDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// GetDocument はIDで文書を取得する
func (s *Service) GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument は文書とそのチャンクを削除する
func (s *Service) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	if err := s.repo.DeleteDocument(ctx, userID, documentID); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		"userID", userID.String(),
		"documentID", documentID.String(),
	)
	return nil
}
