package indexing

import "errors"

var (
	// ErrInvalidChunkerConfig はチャンカーの設定値が不正な場合のエラー
	ErrInvalidChunkerConfig = errors.New("invalid chunker configuration")

	// ErrDimensionMismatch は埋め込みベクトルの次元が設定と一致しない場合のエラー
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
