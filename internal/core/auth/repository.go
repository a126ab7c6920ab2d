package auth

import (
	"context"

	"github.com/google/uuid"
)

// Repository はユーザーの永続化を提供する
type Repository interface {
	// CreateUser は新しいユーザーを保存する
	CreateUser(ctx context.Context, user *User) error

	// GetUser はIDでユーザーを取得する。
	// 存在しない場合はErrUserNotFoundを返す
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)

	// GetUserByEmail はメールアドレスでユーザーを取得する。
	// 存在しない場合はErrUserNotFoundを返す
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateRefreshToken はユーザーのリフレッシュトークンを更新する。
	// nilを渡すとトークンを無効化する
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// UpdateLastLogin は最終ログイン時刻を現在時刻に更新する
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}
