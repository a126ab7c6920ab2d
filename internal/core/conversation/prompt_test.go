package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jinford/shiori/internal/core/retrieval"
)

func TestBuildDecompositionPrompt(t *testing.T) {
	got := buildDecompositionPrompt("What did I read about habits?", 3)

	assert.Contains(t, got, "Generate a maximum of 3 search queries")
	assert.Contains(t, got, "User query: What did I read about habits?")
}

func TestBuildAnswerPrompt(t *testing.T) {
	t.Run("候補がない場合は空のコンテキストになる", func(t *testing.T) {
		got := buildAnswerPrompt("Who won?", nil)

		assert.Contains(t, got, "Question: Who won?")
		assert.Contains(t, got, "Context: []")
	})

	t.Run("候補はidとtextのペアで埋め込まれる", func(t *testing.T) {
		id1 := uuid.New()
		id2 := uuid.New()
		got := buildAnswerPrompt("What is success?", []*retrieval.Candidate{
			{SourceID: id1, Text: "Success is due to hard work"},
			{SourceID: id2, Text: "Success is due to luck"},
		})

		assert.Contains(t, got, "id: "+id1.String()+"\ntext: Success is due to hard work")
		assert.Contains(t, got, "id: "+id2.String()+"\ntext: Success is due to luck")
	})
}
