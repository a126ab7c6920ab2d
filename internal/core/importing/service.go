package importing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/shiori/internal/core/library"
)

// Repository はインポートに必要な永続化操作を提供する
type Repository interface {
	// FindBook はタイトルと著者で書籍を検索する。
	// 見つからない場合は library.ErrBookNotFound を返す
	FindBook(ctx context.Context, title, authors string) (*library.Book, error)

	// CreateBook はカタログに書籍を登録する
	CreateBook(ctx context.Context, title, authors string) (*library.Book, error)

	// InsertDocuments は文書を一括挿入し、重複をスキップして
	// 実際に挿入された行のみを返す
	InsertDocuments(ctx context.Context, docs []*library.Document) ([]*library.Document, error)
}

// Indexer は新規文書をチャンク化して検索インデックスに登録する
type Indexer interface {
	IndexDocuments(ctx context.Context, docs []*library.Document) (int, error)
}

// Result はインポート処理の結果を表す
type Result struct {
	NewImports    int // 新規に取り込まれた注釈数
	Skipped       int // 重複によりスキップされた注釈数
	IndexedChunks int // 作成されたチャンク数
}

// Service は注釈インポートのビジネスロジックを提供する
type Service struct {
	repo    Repository
	indexer Indexer
	logger  *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger は Service にロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, indexer Indexer, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:    repo,
		indexer: indexer,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// ImportAnnotations は注釈を書籍ごとにグルーピングし、カタログ登録・
// 文書挿入・インデックス作成まで行う。
// 既存の注釈（コンテンツハッシュが一致）は重複としてスキップされる
func (s *Service) ImportAnnotations(ctx context.Context, userID uuid.UUID, annotations []*Annotation) (*Result, error) {
	if len(annotations) == 0 {
		return &Result{}, nil
	}

	keys, grouped := GroupByBook(annotations)

	var inserted []*library.Document
	skipped := 0

	for _, key := range keys {
		book, err := s.findOrCreateBook(ctx, key)
		if err != nil {
			return nil, err
		}

		docs := make([]*library.Document, 0, len(grouped[key]))
		for _, anno := range grouped[key] {
			docs = append(docs, annotationToDocument(anno, userID, book))
		}

		rows, err := s.repo.InsertDocuments(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("failed to insert documents for %q: %w", key.Title, err)
		}

		skipped += len(docs) - len(rows)
		inserted = append(inserted, rows...)
	}

	s.logger.Info("annotations imported",
		"userID", userID.String(),
		"books", len(keys),
		"inserted", len(inserted),
		"skipped", skipped,
	)

	chunks := 0
	if len(inserted) > 0 {
		n, err := s.indexer.IndexDocuments(ctx, inserted)
		if err != nil {
			return nil, fmt.Errorf("failed to index imported documents: %w", err)
		}
		chunks = n
	}

	return &Result{
		NewImports:    len(inserted),
		Skipped:       skipped,
		IndexedChunks: chunks,
	}, nil
}

// findOrCreateBook はカタログから書籍を検索し、なければ登録する
func (s *Service) findOrCreateBook(ctx context.Context, key BookKey) (*library.Book, error) {
	book, err := s.repo.FindBook(ctx, key.Title, key.Authors)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, library.ErrBookNotFound) {
		return nil, fmt.Errorf("failed to find book %q: %w", key.Title, err)
	}

	book, err = s.repo.CreateBook(ctx, key.Title, key.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to create book %q: %w", key.Title, err)
	}
	return book, nil
}

// annotationToDocument は注釈をユーザー所有の文書に変換する。
// カタログの書誌情報があればタイトル・著者をそちらに揃える
func annotationToDocument(anno *Annotation, userID uuid.UUID, book *library.Book) *library.Document {
	doc := &library.Document{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         anno.Title,
		Authors:       anno.JoinedAuthors(),
		Content:       anno.Content,
		ContentHash:   library.HashContent(anno.Content),
		IsClip:        true,
		LocationType:  anno.LocationType,
		LocationStart: anno.LocationStart,
		LocationEnd:   anno.LocationEnd,
	}

	if anno.AnnotatedAt != nil {
		doc.CreatedAt = *anno.AnnotatedAt
	} else {
		doc.CreatedAt = time.Now()
	}

	if book != nil {
		doc.CatalogueID = &book.ID
		doc.Title = book.Title
		doc.Authors = book.Authors
	}

	return doc
}
