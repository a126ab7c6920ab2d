package indexing

import (
	"fmt"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// SentenceChunker はテキストを文のグループに分割する。
// 同じ設定に対して純粋関数として振る舞い、同一入力は常に同一の
// チャンク列を生成する。
//
// 注釈や書き起こしは表や画像のない単純な文書なので、文単位の
// 分割で十分に機能する
type SentenceChunker struct {
	maxSentences  int // 1グループあたりの文数
	groupOverlap  int // グループ間でオーバーラップする文数
	minCharacters int // これ未満の文は前後の文と結合する
}

// NewSentenceChunker は新しいSentenceChunkerを作成する
func NewSentenceChunker(maxSentences, groupOverlap, minCharacters int) (*SentenceChunker, error) {
	if maxSentences <= 0 {
		return nil, fmt.Errorf("%w: maxSentences must be positive", ErrInvalidChunkerConfig)
	}
	if groupOverlap < 0 || groupOverlap >= maxSentences {
		return nil, fmt.Errorf("%w: groupOverlap must be non-negative and less than maxSentences", ErrInvalidChunkerConfig)
	}

	return &SentenceChunker{
		maxSentences:  maxSentences,
		groupOverlap:  groupOverlap,
		minCharacters: minCharacters,
	}, nil
}

// Strategy はチャンク化方式を識別するタグを返す
func (c *SentenceChunker) Strategy() string {
	return fmt.Sprintf("sent-group-%d-overlap-%d", c.maxSentences, c.groupOverlap)
}

// Chunk はテキストを文のグループに分割する。
// 短すぎる文は隣接する文と結合してからグルーピングする
func (c *SentenceChunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	segments := splitSentences(text)
	segments = combineShortStrings(segments, c.minCharacters)

	var groups []string
	idx := 0
	for idx < len(segments) {
		end := idx + c.maxSentences
		if end > len(segments) {
			end = len(segments)
		}
		groups = append(groups, strings.Join(segments[idx:end], " "))
		idx += c.maxSentences - c.groupOverlap
	}

	return groups
}

// splitSentences はUAX #29の文境界でテキストを分割する
func splitSentences(text string) []string {
	var result []string
	iter := sentences.FromString(text)
	for iter.Next() {
		s := strings.TrimSpace(iter.Value())
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

// combineShortStrings はminLength未満の文字列を隣接する文字列と結合する。
// 結合後もminLengthに満たない末尾要素は直前の要素に吸収される
func combineShortStrings(strs []string, minLength int) []string {
	var result []string
	i := 0

	for i < len(strs) {
		current := strs[i]

		// 現在の文字列が短い間は後続と結合し続ける
		for len(current) < minLength && i+1 < len(strs) {
			current = current + " " + strs[i+1]
			i++
		}

		// 最後の文字列が短いままなら直前の結果に結合する
		if i+1 >= len(strs) && len(current) < minLength && len(result) > 0 {
			result[len(result)-1] = result[len(result)-1] + " " + current
		} else {
			result = append(result, current)
		}
		i++
	}

	return result
}
