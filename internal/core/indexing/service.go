package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jinford/shiori/internal/core/library"
)

// Embedder はテキストを埋め込みベクトルに変換する
type Embedder interface {
	// EmbedBatch は複数テキストの埋め込みベクトルを生成する。
	// 戻り値はtextsと同じ長さ・同じ順序になる
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension は生成されるベクトルの次元数を返す
	Dimension() int
}

// Chunker はテキストをチャンクに分割する
type Chunker interface {
	Chunk(text string) []string
	Strategy() string
}

// Service は文書のチャンク化と埋め込み生成、永続化を担う
type Service struct {
	repo     Repository
	chunker  Chunker
	embedder Embedder
	logger   *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger はServiceにロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, chunker Chunker, embedder Embedder, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		chunker:  chunker,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexDocuments は文書群をチャンク化して埋め込みを生成し、保存する。
// 既にインデックス済みのチャンクはスキップされるため、同じ文書を
// 再投入しても重複は発生しない。保存したチャンク数を返す
func (s *Service) IndexDocuments(ctx context.Context, docs []*library.Document) (int, error) {
	var chunks []*Chunk
	for _, doc := range docs {
		for _, piece := range s.chunker.Chunk(doc.Content) {
			chunks = append(chunks, &Chunk{
				ID:             uuid.New(),
				SourceID:       doc.ID,
				Content:        piece,
				CleanedContent: cleanText(piece),
				Strategy:       s.chunker.Strategy(),
			})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.CleanedContent
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	dim := s.embedder.Dimension()
	for i, embedding := range embeddings {
		if len(embedding) != dim {
			return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), dim)
		}
		chunks[i].Embedding = embedding
	}

	inserted, err := s.repo.InsertChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunks: %w", err)
	}

	s.logger.InfoContext(ctx, "indexed documents",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)),
		slog.Int("inserted", len(inserted)),
	)

	return len(inserted), nil
}

// cleanText は埋め込み品質を安定させるための前処理を行う
func cleanText(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
