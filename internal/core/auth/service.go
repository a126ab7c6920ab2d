package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service はユーザー登録と認証、トークンの発行・更新を担う
type Service struct {
	repo   Repository
	tokens *TokenManager
	logger *slog.Logger
}

type ServiceOption func(*Service)

// WithLogger はServiceにロガーを設定する
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(repo Repository, tokens *TokenManager, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register は新しいユーザーを登録する。
// メールアドレスが登録済みの場合はErrEmailAlreadyRegisteredを返す
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:             uuid.New(),
		Email:          email,
		Username:       email,
		HashedPassword: string(hashed),
		IsActive:       true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))

	return user, nil
}

// Login はメールアドレスとパスワードを検証してトークンの組を発行する。
// 発行したリフレッシュトークンはユーザーに紐付けて保存される
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))

	return pair, nil
}

// Refresh はリフレッシュトークンを検証して新しいトークンの組を発行する。
// 保存済みのトークンと一致しない場合は再利用の可能性があるため、
// そのユーザーのリフレッシュトークンを無効化した上でErrInvalidTokenを返す
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.logger.WarnContext(ctx, "refresh token mismatch, invalidating stored token",
			slog.String("user_id", userID.String()),
		)
		if err := s.repo.UpdateRefreshToken(ctx, userID, nil); err != nil {
			return nil, fmt.Errorf("failed to invalidate refresh token: %w", err)
		}
		return nil, ErrInvalidToken
	}

	return s.issueTokenPair(ctx, userID)
}

// Logout はユーザーのリフレッシュトークンを無効化する
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to invalidate refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID.String()))

	return nil
}

// GetUserByEmail はメールアドレスでユーザーを検索する
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// CurrentUser はアクセストークンを検証してユーザーを返す
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	userID, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) issueTokenPair(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, userID, &refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}
