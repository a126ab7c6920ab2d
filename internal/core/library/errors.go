package library

import "errors"

var (
	// ErrBookNotFound は書籍がカタログに存在しない場合に返されます
	ErrBookNotFound = errors.New("book not found")

	// ErrDocumentNotFound は文書がユーザーのライブラリに存在しない場合に返されます
	ErrDocumentNotFound = errors.New("document not found")
)
