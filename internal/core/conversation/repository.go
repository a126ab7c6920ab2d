package conversation

import (
	"context"

	"github.com/google/uuid"
)

// ListOptions は会話一覧取得時のページングとソートを指定する
type ListOptions struct {
	Limit  int    // 0なら無制限
	Offset int
	Sort   string // "created_at" または "updated_at"
	Order  string // "asc" または "desc"
}

// Repository は会話とメッセージの永続化を提供する
type Repository interface {
	// CreateConversation は新しい会話を作成する
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation はユーザーの会話を取得する。
	// 存在しない場合はErrConversationNotFoundを返す
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error)

	// ListConversations はユーザーの会話一覧をメタデータのみで返す
	ListConversations(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*Conversation, error)

	// ListMessages は会話のメッセージをIndexの昇順で返す
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error)

	// GetMessage はユーザーのメッセージを取得する。
	// 存在しない場合はErrMessageNotFoundを返す
	GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*Message, error)

	// AppendMessage はメッセージを会話の末尾に追加する。
	// ParentIDとIndexの採番、会話のリーフ・件数・更新時刻の更新まで行う
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)
}

// TxProvider はリポジトリ操作を1つのトランザクションにまとめる。
// fnがエラーを返した場合は全ての変更がロールバックされる
type TxProvider interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}
