package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/shiori/internal/core/indexing"
	"github.com/jinford/shiori/internal/core/retrieval"
)

// ChunkRepository はチャンクの保存とベクトル類似検索を実装する
// PostgreSQL リポジトリ
type ChunkRepository struct {
	db DBTX
}

// NewChunkRepository は新しい ChunkRepository を作成する
func NewChunkRepository(db DBTX) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// コンパイル時の型チェック
var (
	_ indexing.Repository  = (*ChunkRepository)(nil)
	_ retrieval.Repository = (*ChunkRepository)(nil)
)

func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []*indexing.Chunk) ([]*indexing.Chunk, error) {
	var inserted []*indexing.Chunk
	for _, chunk := range chunks {
		var id uuid.UUID
		err := r.db.QueryRow(ctx, `
			INSERT INTO chunk (id, source_id, content, cleaned_content, strategy, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (source_id, content) DO NOTHING
			RETURNING id
		`,
			chunk.ID, chunk.SourceID, chunk.Content, chunk.CleanedContent, chunk.Strategy,
			pgvector.NewVector(chunk.Embedding),
		).Scan(&id)
		if err != nil {
			// 同じ文書に同じテキストのチャンクが既にある場合はスキップする
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
		inserted = append(inserted, chunk)
	}
	return inserted, nil
}

func (r *ChunkRepository) FindSimilarChunks(ctx context.Context, embedding []float32, limit int, filter retrieval.SearchFilter) ([]*retrieval.ChunkMatch, error) {
	var userID *uuid.UUID
	if id, ok := filter.UserID.Get(); ok {
		userID = &id
	}

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.source_id, c.content, c.embedding <=> $1 AS score
		FROM chunk c
		JOIN document d ON d.id = c.source_id
		WHERE ($2::uuid IS NULL OR d.user_id = $2)
		  AND ($3::text[] IS NULL OR c.source_id::text <> ALL($3::text[]))
		  AND ($4::text[] IS NULL OR c.id::text <> ALL($4::text[]))
		ORDER BY score
		LIMIT $5
	`,
		pgvector.NewVector(embedding),
		userID,
		uuidsToStrings(filter.ExcludeSourceIDs),
		uuidsToStrings(filter.ExcludeChunkIDs),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar chunks: %w", err)
	}
	defer rows.Close()

	var matches []*retrieval.ChunkMatch
	for rows.Next() {
		var match retrieval.ChunkMatch
		if err := rows.Scan(&match.ChunkID, &match.SourceID, &match.Content, &match.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk matches: %w", err)
	}
	return matches, nil
}

func (r *ChunkRepository) ListChunkEmbeddings(ctx context.Context, sourceID uuid.UUID) ([]*retrieval.ChunkEmbedding, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, embedding
		FROM chunk
		WHERE source_id = $1
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []*retrieval.ChunkEmbedding
	for rows.Next() {
		var (
			id     uuid.UUID
			vector pgvector.Vector
		)
		if err := rows.Scan(&id, &vector); err != nil {
			return nil, fmt.Errorf("failed to scan chunk embedding: %w", err)
		}
		embeddings = append(embeddings, &retrieval.ChunkEmbedding{
			ChunkID:   id,
			Embedding: vector.Slice(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk embeddings: %w", err)
	}
	return embeddings, nil
}

// uuidsToStrings はuuid配列をクエリパラメータ用のtext配列に変換する。
// 空の場合はnilを返し、SQL側のIS NULL判定でフィルタを無効にする
func uuidsToStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strs
}
