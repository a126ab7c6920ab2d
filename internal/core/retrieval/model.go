package retrieval

import "github.com/google/uuid"

// ChunkMatch は類似検索でヒットしたチャンクを表す。
// Scoreはコサイン距離で、0に近いほど類似している
type ChunkMatch struct {
	ChunkID  uuid.UUID
	SourceID uuid.UUID
	Content  string
	Score    float64
}

// Candidate は回答生成に渡す候補チャンク。
// 複数のクエリバリアントの検索結果を重複排除したもの
type Candidate struct {
	SourceID uuid.UUID
	Text     string
	Score    float64
}

// DocumentMatch は文書間類似度の算出結果を表す
type DocumentMatch struct {
	SourceID uuid.UUID
	Score    float64
}

// ChunkEmbedding はインデックス済みチャンクの埋め込みベクトル
type ChunkEmbedding struct {
	ChunkID   uuid.UUID
	Embedding []float32
}
