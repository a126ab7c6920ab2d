package library

import (
	"context"

	"github.com/google/uuid"
)

// Repository はライブラリ集約への永続化アクセスを提供する。
// すべての読み書きはユーザーIDでスコープされる
type Repository interface {
	// ListBooks はユーザーの文書が参照する書籍一覧を返す
	ListBooks(ctx context.Context, userID uuid.UUID) ([]*Book, error)

	// SearchBooks はタイトル・著者に対するキーワード検索を行う
	SearchBooks(ctx context.Context, userID uuid.UUID, keyword string) ([]*Book, error)

	// FindBook はタイトルと著者の完全一致で書籍を検索する。
	// 見つからない場合は ErrBookNotFound を返す
	FindBook(ctx context.Context, title, authors string) (*Book, error)

	// CreateBook はカタログに書籍を登録する
	CreateBook(ctx context.Context, title, authors string) (*Book, error)

	// ListDocuments はユーザーの全文書を返す
	ListDocuments(ctx context.Context, userID uuid.UUID) ([]*Document, error)

	// GetDocument はIDで文書を取得する。ユーザーが所有していない場合は
	// ErrDocumentNotFound を返す
	GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*Document, error)

	// DeleteDocument は文書を削除する。文書に紐づくチャンクはカスケード削除される
	DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error

	// InsertDocuments は文書を一括挿入する。コンテンツハッシュの一意制約に
	// 衝突した行はスキップし、実際に挿入された行のみを返す
	InsertDocuments(ctx context.Context, docs []*Document) ([]*Document, error)
}
