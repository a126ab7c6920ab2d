package auth

import (
	"time"

	"github.com/google/uuid"
)

// User は登録済みユーザーを表す
type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	HashedPassword string
	RefreshToken   *string // 現在有効なリフレッシュトークン。未ログインならnil
	IsActive       bool
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

// TokenPair はログイン・リフレッシュで発行されるトークンの組
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
