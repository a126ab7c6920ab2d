package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSourceIDs(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{
			name:   "引用を含まない回答",
			answer: "I'm sorry, I couldn't find the answer.",
			want:   nil,
		},
		{
			name:   "1つの引用",
			answer: "Success comes from discipline ```cbbff85d-cf4b-4b2d-a497-8181d33d8be6```.",
			want:   []string{"cbbff85d-cf4b-4b2d-a497-8181d33d8be6"},
		},
		{
			name:   "複数の引用は出現順に抜き出す",
			answer: "First ```id-one``` and second ```id-two```.",
			want:   []string{"id-one", "id-two"},
		},
		{
			name:   "同じIDが複数回引用された場合は重複して返す",
			answer: "Both ```id-one``` and again ```id-one```.",
			want:   []string{"id-one", "id-one"},
		},
		{
			name:   "閉じられていないマーカーもIDとして扱う",
			answer: "Trailing ```id-one",
			want:   []string{"id-one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSourceIDs(tt.answer))
		})
	}
}

func TestRemoveInvalidCitations(t *testing.T) {
	t.Run("無効なIDのマーカーだけを除去する", func(t *testing.T) {
		answer := "Valid ```good-id``` and invalid ```bad-id```."
		got := RemoveInvalidCitations(answer, []string{"bad-id"})
		assert.Equal(t, "Valid ```good-id``` and invalid .", got)
	})

	t.Run("無効なIDがなければ回答は変わらない", func(t *testing.T) {
		answer := "Valid ```good-id``` only."
		assert.Equal(t, answer, RemoveInvalidCitations(answer, nil))
	})

	t.Run("除去後の回答からは無効なIDが抽出されない", func(t *testing.T) {
		answer := "A ```good-id``` B ```bad-id``` C."
		repaired := RemoveInvalidCitations(answer, []string{"bad-id"})
		assert.Equal(t, []string{"good-id"}, ExtractSourceIDs(repaired))
	})
}
