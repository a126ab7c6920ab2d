package library

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Book は書誌カタログの1冊を表す。複数ユーザーの文書が同じ書籍を参照できる
type Book struct {
	ID            uuid.UUID
	Title         string
	Authors       string
	ThumbnailPath *string
}

// Document はユーザーが所有するコンテンツ単位（クリップ/注釈）を表す。
// 検索結果の「ソース」としてユーザーに提示される単位でもある
type Document struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CatalogueID *uuid.UUID // 書誌カタログへの参照（不明な場合はnil）
	Title       string
	Authors     string
	Content     string
	ContentHash string
	IsClip      bool

	// 引用表示用の位置情報
	LocationType  *string
	LocationStart *int
	LocationEnd   *int

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// HashContent はコンテンツの重複判定に使うハッシュを計算する
func HashContent(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
