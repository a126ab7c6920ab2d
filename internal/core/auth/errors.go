package auth

import "errors"

var (
	// ErrUserNotFound はユーザーが存在しない場合のエラー
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyRegistered はメールアドレスが登録済みの場合のエラー
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrInvalidCredentials はメールアドレスとパスワードの組が
	// 一致しない場合のエラー
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrInvalidToken はトークンの検証に失敗した場合のエラー
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired はトークンの有効期限が切れている場合のエラー
	ErrTokenExpired = errors.New("token expired")
)
