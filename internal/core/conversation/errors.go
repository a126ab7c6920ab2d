package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrConversationNotFound は会話が存在しない場合のエラー
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound はメッセージが存在しない場合のエラー
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyQuery は空の質問が渡された場合のエラー
	ErrEmptyQuery = errors.New("query must not be empty")
)

// LanguageModelError は言語モデル呼び出しの失敗を表す
type LanguageModelError struct {
	Op  string // 失敗した操作名
	Err error
}

func (e *LanguageModelError) Error() string {
	return fmt.Sprintf("language model %s failed: %v", e.Op, e.Err)
}

func (e *LanguageModelError) Unwrap() error {
	return e.Err
}
