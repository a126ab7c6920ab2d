package indexing

import "context"

// Repository はチャンクの永続化を提供する
type Repository interface {
	// InsertChunks はチャンクを保存する。
	// (source_id, content) が既存の行と重複するチャンクは黙ってスキップし、
	// 実際に挿入されたチャンクのみを返す
	InsertChunks(ctx context.Context, chunks []*Chunk) ([]*Chunk, error)
}
