package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSentenceChunker(t *testing.T) {
	t.Run("正常な設定", func(t *testing.T) {
		c, err := NewSentenceChunker(3, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, "sent-group-3-overlap-1", c.Strategy())
	})

	t.Run("maxSentencesが0以下はエラー", func(t *testing.T) {
		_, err := NewSentenceChunker(0, 0, 20)
		assert.ErrorIs(t, err, ErrInvalidChunkerConfig)
	})

	t.Run("groupOverlapがmaxSentences以上はエラー", func(t *testing.T) {
		_, err := NewSentenceChunker(3, 3, 20)
		assert.ErrorIs(t, err, ErrInvalidChunkerConfig)
	})

	t.Run("負のgroupOverlapはエラー", func(t *testing.T) {
		_, err := NewSentenceChunker(3, -1, 20)
		assert.ErrorIs(t, err, ErrInvalidChunkerConfig)
	})
}

func TestSentenceChunker_Chunk(t *testing.T) {
	t.Run("空文字列はチャンクを生成しない", func(t *testing.T) {
		c, err := NewSentenceChunker(3, 1, 20)
		require.NoError(t, err)

		assert.Empty(t, c.Chunk(""))
	})

	t.Run("グループはオーバーラップしながら進む", func(t *testing.T) {
		c, err := NewSentenceChunker(2, 1, 1)
		require.NoError(t, err)

		text := "First sentence here. Second sentence here. Third sentence here. Fourth sentence here."
		got := c.Chunk(text)

		assert.Equal(t, []string{
			"First sentence here. Second sentence here.",
			"Second sentence here. Third sentence here.",
			"Third sentence here. Fourth sentence here.",
			"Fourth sentence here.",
		}, got)
	})

	t.Run("オーバーラップなしのグルーピング", func(t *testing.T) {
		c, err := NewSentenceChunker(2, 0, 1)
		require.NoError(t, err)

		text := "First sentence here. Second sentence here. Third sentence here."
		got := c.Chunk(text)

		assert.Equal(t, []string{
			"First sentence here. Second sentence here.",
			"Third sentence here.",
		}, got)
	})

	t.Run("短い文は後続の文と結合される", func(t *testing.T) {
		c, err := NewSentenceChunker(1, 0, 20)
		require.NoError(t, err)

		text := "Yes. This sentence is long enough to stand alone."
		got := c.Chunk(text)

		assert.Equal(t, []string{
			"Yes. This sentence is long enough to stand alone.",
		}, got)
	})

	t.Run("末尾の短い文は直前のグループ要素に吸収される", func(t *testing.T) {
		c, err := NewSentenceChunker(1, 0, 20)
		require.NoError(t, err)

		text := "This sentence is long enough to stand alone. No."
		got := c.Chunk(text)

		assert.Equal(t, []string{
			"This sentence is long enough to stand alone. No.",
		}, got)
	})

	t.Run("同じ入力には常に同じ出力を返す", func(t *testing.T) {
		c, err := NewSentenceChunker(3, 1, 20)
		require.NoError(t, err)

		text := "Reading gives us someplace to go when we have to stay where we are. " +
			"A reader lives a thousand lives before he dies. " +
			"The man who never reads lives only one. " +
			"Books are a uniquely portable magic."

		first := c.Chunk(text)
		second := c.Chunk(text)
		assert.Equal(t, first, second)
	})
}

func TestCombineShortStrings(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		minLength int
		want      []string
	}{
		{
			name:      "全て十分な長さならそのまま",
			input:     []string{"aaaa", "bbbb"},
			minLength: 3,
			want:      []string{"aaaa", "bbbb"},
		},
		{
			name:      "短い文字列は後続と結合",
			input:     []string{"a", "bbbb", "cccc"},
			minLength: 3,
			want:      []string{"a bbbb", "cccc"},
		},
		{
			name:      "連続する短い文字列は1つにまとまる",
			input:     []string{"a", "b", "c", "dddd"},
			minLength: 3,
			want:      []string{"a b", "c dddd"},
		},
		{
			name:      "末尾の短い文字列は直前に結合",
			input:     []string{"aaaa", "b"},
			minLength: 3,
			want:      []string{"aaaa b"},
		},
		{
			name:      "要素が1つだけなら短くても残る",
			input:     []string{"a"},
			minLength: 3,
			want:      []string{"a"},
		},
		{
			name:      "空のスライス",
			input:     nil,
			minLength: 3,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := combineShortStrings(tt.input, tt.minLength)
			assert.Equal(t, tt.want, got)
		})
	}
}
