package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// crossDocSearchLimit は文書間類似度の算出で1チャンクあたりに
// 収集する近傍チャンクの数
const crossDocSearchLimit = 10

// Embedder はクエリテキストを埋め込みベクトルに変換する
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service はベクトル類似検索と候補の集約を担う
type Service struct {
	repo      Repository
	embedder  Embedder
	topK      int     // クエリ1件あたりの検索件数
	threshold float64 // この距離を超えるヒットは捨てる
	logger    *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger はServiceにロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, embedder Embedder, topK int, threshold float64, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		embedder:  embedder,
		topK:      topK,
		threshold: threshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindSimilar はクエリに類似するチャンクをコサイン距離の昇順で返す
func (s *Service) FindSimilar(ctx context.Context, query string, filter SearchFilter) ([]*ChunkMatch, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.repo.FindSimilarChunks(ctx, embedding, s.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar chunks: %w", err)
	}

	return matches, nil
}

// AggregateCandidates は複数のクエリバリアントで検索した結果を
// 1つの候補リストに集約する。距離がしきい値を超えるヒットは捨て、
// 同一テキストのチャンクは最初に現れたものだけを残す。
// 候補は発見順に並ぶ
func (s *Service) AggregateCandidates(ctx context.Context, queries []string, filter SearchFilter) ([]*Candidate, error) {
	seen := make(map[string]struct{})
	var candidates []*Candidate

	for _, query := range queries {
		matches, err := s.FindSimilar(ctx, query, filter)
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			if match.Score > s.threshold {
				continue
			}
			if _, ok := seen[match.Content]; ok {
				continue
			}
			seen[match.Content] = struct{}{}
			candidates = append(candidates, &Candidate{
				SourceID: match.SourceID,
				Text:     match.Content,
				Score:    match.Score,
			})
		}
	}

	s.logger.DebugContext(ctx, "aggregated retrieval candidates",
		slog.Int("queries", len(queries)),
		slog.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// FindSimilarDocuments はsourceIDの文書に類似する、同じユーザーの
// 他の文書を返す。文書のスコアは、その文書に属するヒットチャンクの
// 距離の算術平均で、値が小さい(=近い)順に最大limit件を返す
func (s *Service) FindSimilarDocuments(ctx context.Context, userID, sourceID uuid.UUID, limit int) ([]*DocumentMatch, error) {
	chunkEmbeddings, err := s.repo.ListChunkEmbeddings(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk embeddings: %w", err)
	}
	if len(chunkEmbeddings) == 0 {
		return nil, nil
	}

	// チャンクごとに検索し、同じチャンクが複数回ヒットした場合は
	// より小さい距離を採用する
	best := make(map[uuid.UUID]*ChunkMatch)
	for _, ce := range chunkEmbeddings {
		matches, err := s.repo.FindSimilarChunks(ctx, ce.Embedding, crossDocSearchLimit, SearchFilter{
			UserID:           mo.Some(userID),
			ExcludeSourceIDs: []uuid.UUID{sourceID},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search similar chunks: %w", err)
		}

		for _, match := range matches {
			if prev, ok := best[match.ChunkID]; !ok || match.Score < prev.Score {
				best[match.ChunkID] = match
			}
		}
	}

	// 文書ごとに距離を平均する
	type accumulator struct {
		total float64
		count int
	}
	byDocument := make(map[uuid.UUID]*accumulator)
	for _, match := range best {
		acc, ok := byDocument[match.SourceID]
		if !ok {
			acc = &accumulator{}
			byDocument[match.SourceID] = acc
		}
		acc.total += match.Score
		acc.count++
	}

	results := make([]*DocumentMatch, 0, len(byDocument))
	for id, acc := range byDocument {
		results = append(results, &DocumentMatch{
			SourceID: id,
			Score:    acc.total / float64(acc.count),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
