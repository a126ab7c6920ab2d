package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jinford/shiori/internal/core/auth"
)

// UserRepository は auth.Repository を実装する PostgreSQL リポジトリ
type UserRepository struct {
	db DBTX
}

// NewUserRepository は新しい UserRepository を作成する
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// コンパイル時の型チェック
var _ auth.Repository = (*UserRepository)(nil)

func (r *UserRepository) CreateUser(ctx context.Context, user *auth.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO app_user (id, email, username, hashed_password, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, user.ID, user.Email, user.Username, user.HashedPassword, user.IsActive).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID uuid.UUID) (*auth.User, error) {
	return r.getUser(ctx, "id = $1", userID)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getUser(ctx, "email = $1", email)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (*auth.User, error) {
	var user auth.User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, username, hashed_password, refresh_token, is_active, created_at, last_login_at
		FROM app_user
		WHERE `+where,
		arg,
	).Scan(
		&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.RefreshToken, &user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE app_user
		SET refresh_token = $1
		WHERE id = $2
	`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE app_user
		SET last_login_at = now()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
