package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Sender はメッセージの発信者を表す
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Conversation はユーザーとの1つの会話スレッドを表す
type Conversation struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Name                 string
	Model                string
	CurrentLeafMessageID *uuid.UUID // 最後に追加されたメッセージのID
	MessageCount         int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Message は会話内の1つのメッセージを表す。
// メッセージは親子リンクで連結され、Indexは会話内での通し番号になる
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	ParentID       *uuid.UUID
	Index          int
	Sender         Sender
	Content        string
	SourceIDs      []uuid.UUID // 回答が引用した文書のID
	CreatedAt      time.Time
}

// Source は回答が引用した文書の表示用メタデータ
type Source struct {
	ID      uuid.UUID
	Title   string
	Authors string
	Content string
}

// Answer は1回の質問応答の結果を表す
type Answer struct {
	Message *Message
	Prompt  string
	Sources []*Source
}
