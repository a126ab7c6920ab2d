package indexing

import "github.com/google/uuid"

// Chunk は文書から切り出された検索単位のテキスト断片を表す
type Chunk struct {
	ID             uuid.UUID
	SourceID       uuid.UUID // 所属する文書のID
	Content        string    // 元のチャンクテキスト
	CleanedContent string    // 埋め込み前処理を適用したテキスト
	Strategy       string    // チャンク化方式のタグ
	Embedding      []float32
}
