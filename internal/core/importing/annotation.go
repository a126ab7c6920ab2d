package importing

import (
	"strings"
	"time"
)

// AuthorSeparator は複数著者を1つの文字列に結合する際の区切り文字
const AuthorSeparator = ";"

// AnnotationType は注釈の種別を表す
type AnnotationType string

const (
	AnnotationTypeHighlight AnnotationType = "highlight"
	AnnotationTypeNote      AnnotationType = "note"
	AnnotationTypeBookmark  AnnotationType = "bookmark"
)

// Annotation はインポートされた書籍注釈を表す。
// パーサの出力であり、永続化前の中間表現として使う
type Annotation struct {
	Title   string
	Authors []string
	Content string
	Type    AnnotationType

	// 位置情報（存在しない場合はnil）
	LocationType  *string
	LocationStart *int
	LocationEnd   *int
	PageStart     *int
	PageEnd       *int

	AnnotatedAt *time.Time
}

// JoinedAuthors は著者リストを区切り文字で結合した文字列を返す
func (a *Annotation) JoinedAuthors() string {
	return strings.Join(a.Authors, AuthorSeparator)
}

// BookKey は注釈を書籍ごとにグルーピングするための複合キー。
// 値の等価性で比較できる明示的な型として定義する
type BookKey struct {
	Title   string
	Authors string
}

// NewBookKey は注釈からグルーピングキーを作成する
func NewBookKey(a *Annotation) BookKey {
	return BookKey{
		Title:   a.Title,
		Authors: a.JoinedAuthors(),
	}
}

// GroupByBook は注釈を書籍ごとにグルーピングする。
// キーの順序は注釈の出現順を保つ
func GroupByBook(annotations []*Annotation) ([]BookKey, map[BookKey][]*Annotation) {
	keys := make([]BookKey, 0)
	grouped := make(map[BookKey][]*Annotation)

	for _, anno := range annotations {
		key := NewBookKey(anno)
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], anno)
	}

	return keys, grouped
}
