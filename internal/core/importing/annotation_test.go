package importing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByBook(t *testing.T) {
	t.Run("書籍ごとにグルーピングし出現順を保つ", func(t *testing.T) {
		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "a1"},
			{Title: "本B", Authors: []string{"著者2"}, Content: "b1"},
			{Title: "本A", Authors: []string{"著者1"}, Content: "a2"},
		}

		keys, grouped := GroupByBook(annotations)
		require.Len(t, keys, 2)
		assert.Equal(t, BookKey{Title: "本A", Authors: "著者1"}, keys[0])
		assert.Equal(t, BookKey{Title: "本B", Authors: "著者2"}, keys[1])
		assert.Len(t, grouped[keys[0]], 2)
		assert.Len(t, grouped[keys[1]], 1)
	})

	t.Run("著者が異なれば同じタイトルでも別の書籍として扱う", func(t *testing.T) {
		annotations := []*Annotation{
			{Title: "同名の本", Authors: []string{"著者1"}, Content: "x"},
			{Title: "同名の本", Authors: []string{"著者2"}, Content: "y"},
		}

		keys, _ := GroupByBook(annotations)
		assert.Len(t, keys, 2)
	})
}

func TestJoinedAuthors(t *testing.T) {
	anno := &Annotation{Authors: []string{"著者1", "著者2"}}
	assert.Equal(t, "著者1;著者2", anno.JoinedAuthors())
}
