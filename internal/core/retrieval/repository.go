package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// SearchFilter は類似検索の対象範囲を指定する
type SearchFilter struct {
	// UserID を指定すると、そのユーザーが所有する文書のチャンクだけを
	// 検索対象にする
	UserID mo.Option[uuid.UUID]

	// ExcludeSourceIDs に含まれる文書のチャンクは検索結果から除外する
	ExcludeSourceIDs []uuid.UUID

	// ExcludeChunkIDs に含まれるチャンクは検索結果から除外する
	ExcludeChunkIDs []uuid.UUID
}

// Repository はベクトル類似検索を提供する
type Repository interface {
	// FindSimilarChunks はembeddingに類似するチャンクをコサイン距離の
	// 昇順で最大limit件返す
	FindSimilarChunks(ctx context.Context, embedding []float32, limit int, filter SearchFilter) ([]*ChunkMatch, error)

	// ListChunkEmbeddings は指定した文書のチャンク埋め込みを返す
	ListChunkEmbeddings(ctx context.Context, sourceID uuid.UUID) ([]*ChunkEmbedding, error)
}
