package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/shiori/internal/core/conversation"
)

// ConversationTxProvider は conversation.TxProvider を実装し、
// メッセージの追加を1つのトランザクションにまとめる
type ConversationTxProvider struct {
	pool *pgxpool.Pool
}

// NewConversationTxProvider は新しい ConversationTxProvider を作成する
func NewConversationTxProvider(pool *pgxpool.Pool) *ConversationTxProvider {
	return &ConversationTxProvider{pool: pool}
}

// コンパイル時の型チェック
var _ conversation.TxProvider = (*ConversationTxProvider)(nil)

// WithinTx はトランザクション内でfnを実行する。
// fnがエラーを返した場合は全ての変更をロールバックする
func (p *ConversationTxProvider) WithinTx(ctx context.Context, fn func(repo conversation.Repository) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewConversationRepository(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
