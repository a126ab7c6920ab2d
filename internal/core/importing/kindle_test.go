package importing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleClippings = `The Go Programming Language (Donovan, Alan A. A.;Kernighan, Brian W.)
- Your Highlight on page 43 | location 973-974 | Added on Thursday, 28 January 2016 08:33:31

Interfaces are satisfied implicitly.
==========
The Go Programming Language (Donovan, Alan A. A.;Kernighan, Brian W.)
- Your Bookmark on page 50 | Added on Thursday, 28 January 2016 09:00:00

==========
思考の整理学 (外山滋比古)
- Your Note on location 210 | Added on Friday, 30 September 2016 21:25:07

アイデアは寝かせる。
==========
`

func TestParseKindleClippings(t *testing.T) {
	t.Run("ハイライトとノートを抽出しブックマークを除外する", func(t *testing.T) {
		annotations, err := ParseKindleClippings(strings.NewReader(sampleClippings))
		require.NoError(t, err)
		require.Len(t, annotations, 2)

		first := annotations[0]
		assert.Equal(t, "The Go Programming Language", first.Title)
		assert.Equal(t, []string{"Alan A. A. Donovan", "Brian W. Kernighan"}, first.Authors)
		assert.Equal(t, "Interfaces are satisfied implicitly.", first.Content)
		assert.Equal(t, AnnotationTypeHighlight, first.Type)
		require.NotNil(t, first.PageStart)
		assert.Equal(t, 43, *first.PageStart)
		assert.Nil(t, first.PageEnd)
		require.NotNil(t, first.LocationStart)
		require.NotNil(t, first.LocationEnd)
		assert.Equal(t, 973, *first.LocationStart)
		assert.Equal(t, 974, *first.LocationEnd)
		require.NotNil(t, first.AnnotatedAt)
		assert.Equal(t, time.Date(2016, time.January, 28, 8, 33, 31, 0, time.UTC), *first.AnnotatedAt)

		second := annotations[1]
		assert.Equal(t, "思考の整理学", second.Title)
		assert.Equal(t, []string{"外山滋比古"}, second.Authors)
		assert.Equal(t, AnnotationTypeNote, second.Type)
		assert.Equal(t, "アイデアは寝かせる。", second.Content)
		require.NotNil(t, second.LocationStart)
		assert.Equal(t, 210, *second.LocationStart)
		assert.Nil(t, second.LocationEnd)
	})

	t.Run("末尾に区切り行がなくても最後の注釈を取り込む", func(t *testing.T) {
		input := "ある本 (著者 太郎)\n- Your Highlight on location 10-12 | Added on Monday, 1 May 2023 10:00:00\n\n最後のハイライト"

		annotations, err := ParseKindleClippings(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, annotations, 1)
		assert.Equal(t, "最後のハイライト", annotations[0].Content)
	})

	t.Run("空の入力は空のリストを返す", func(t *testing.T) {
		annotations, err := ParseKindleClippings(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, annotations)
	})
}

func TestExtractAuthors(t *testing.T) {
	t.Run("括弧がない場合はnil", func(t *testing.T) {
		assert.Nil(t, extractAuthors("タイトルのみの行"))
	})

	t.Run("ネストした括弧では最後の対応する括弧内を著者とみなす", func(t *testing.T) {
		authors := extractAuthors("Some Title (2nd Edition) (Smith, John)")
		assert.Equal(t, []string{"John Smith"}, authors)
	})
}

func TestSwapPartsOfName(t *testing.T) {
	assert.Equal(t, "John Smith", swapPartsOfName("Smith, John"))
	assert.Equal(t, "単一名", swapPartsOfName(" 単一名 "))
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Some Title", extractTitle("Some Title (Smith, John)"))
	assert.Equal(t, "括弧なしタイトル", extractTitle("括弧なしタイトル"))
}
