package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jinford/shiori/internal/core/conversation"
)

// ConversationRepository は conversation.Repository を実装する
// PostgreSQL リポジトリ
type ConversationRepository struct {
	db DBTX
}

// NewConversationRepository は新しい ConversationRepository を作成する
func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// コンパイル時の型チェック
var _ conversation.Repository = (*ConversationRepository)(nil)

func (r *ConversationRepository) CreateConversation(ctx context.Context, conv *conversation.Conversation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversation (id, user_id, name, model)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, conv.ID, conv.UserID, conv.Name, conv.Model).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*conversation.Conversation, error) {
	var conv conversation.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, model, current_leaf_message_id, message_count, created_at, updated_at
		FROM conversation
		WHERE id = $1 AND user_id = $2
	`, conversationID, userID).Scan(
		&conv.ID, &conv.UserID, &conv.Name, &conv.Model,
		&conv.CurrentLeafMessageID, &conv.MessageCount, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) ListConversations(ctx context.Context, userID uuid.UUID, opts conversation.ListOptions) ([]*conversation.Conversation, error) {
	// ソート指定はSQLに埋め込むため、許可した値以外は受け付けない
	sortColumn := "updated_at"
	if opts.Sort == "created_at" {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if opts.Order == "asc" {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, name, model, current_leaf_message_id, message_count, created_at, updated_at
		FROM conversation
		WHERE user_id = $1
		ORDER BY %s %s
		OFFSET $2
	`, sortColumn, direction)

	args := []any{userID, opts.Offset}
	if opts.Limit > 0 {
		query += " LIMIT $3"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*conversation.Conversation
	for rows.Next() {
		var conv conversation.Conversation
		err := rows.Scan(
			&conv.ID, &conv.UserID, &conv.Name, &conv.Model,
			&conv.CurrentLeafMessageID, &conv.MessageCount, &conv.CreatedAt, &conv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return conversations, nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*conversation.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, parent_id, message_index, sender, content, source_ids, created_at
		FROM message
		WHERE conversation_id = $1
		ORDER BY message_index
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*conversation.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

func (r *ConversationRepository) GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*conversation.Message, error) {
	row := r.db.QueryRow(ctx, `
		SELECT m.id, m.conversation_id, m.parent_id, m.message_index, m.sender, m.content, m.source_ids, m.created_at
		FROM message m
		JOIN conversation c ON c.id = m.conversation_id
		WHERE m.id = $1 AND c.user_id = $2
	`, messageID, userID)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conversation.ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *conversation.Message) (*conversation.Message, error) {
	// 同じ会話への同時追加で採番が重複しないよう行ロックを取る
	var (
		leafID *uuid.UUID
		count  int
	)
	err := r.db.QueryRow(ctx, `
		SELECT current_leaf_message_id, message_count
		FROM conversation
		WHERE id = $1
		FOR UPDATE
	`, msg.ConversationID).Scan(&leafID, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to lock conversation: %w", err)
	}

	msg.ParentID = leafID
	msg.Index = count

	// source_idsはNOT NULL列なので空でも空配列を渡す
	sourceIDs := make([]string, 0, len(msg.SourceIDs))
	for _, id := range msg.SourceIDs {
		sourceIDs = append(sourceIDs, id.String())
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO message (id, conversation_id, parent_id, message_index, sender, content, source_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		msg.ID, msg.ConversationID, msg.ParentID, msg.Index, string(msg.Sender), msg.Content,
		sourceIDs,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE conversation
		SET current_leaf_message_id = $1,
		    message_count = message_count + 1,
		    updated_at = now()
		WHERE id = $2
	`, msg.ID, msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation leaf: %w", err)
	}

	return msg, nil
}

func scanMessage(row pgx.Row) (*conversation.Message, error) {
	var (
		msg       conversation.Message
		sender    string
		sourceIDs []string
	)
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.ParentID, &msg.Index, &sender, &msg.Content,
		&sourceIDs, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.Sender = conversation.Sender(sender)
	for _, raw := range sourceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse source id %s: %w", raw, err)
		}
		msg.SourceIDs = append(msg.SourceIDs, id)
	}
	return &msg, nil
}
