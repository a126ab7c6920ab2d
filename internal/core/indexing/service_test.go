package indexing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/shiori/internal/core/library"
)

type stubChunkRepository struct {
	inserted []*Chunk
	skip     map[string]bool // content -> 重複としてスキップするか
}

func (s *stubChunkRepository) InsertChunks(_ context.Context, chunks []*Chunk) ([]*Chunk, error) {
	var result []*Chunk
	for _, chunk := range chunks {
		if s.skip[chunk.Content] {
			continue
		}
		result = append(result, chunk)
	}
	s.inserted = append(s.inserted, result...)
	return result, nil
}

type stubEmbedder struct {
	dimension int
	calls     [][]string
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls = append(s.calls, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, s.dimension)
	}
	return vectors, nil
}

func (s *stubEmbedder) Dimension() int {
	return s.dimension
}

func TestService_IndexDocuments(t *testing.T) {
	newDoc := func(content string) *library.Document {
		return &library.Document{ID: uuid.New(), Content: content}
	}

	t.Run("文書をチャンク化して保存する", func(t *testing.T) {
		repo := &stubChunkRepository{}
		embedder := &stubEmbedder{dimension: 4}
		chunker, err := NewSentenceChunker(1, 0, 1)
		require.NoError(t, err)

		svc := NewService(repo, chunker, embedder)

		doc := newDoc("First sentence here. Second sentence here.")
		count, err := svc.IndexDocuments(context.Background(), []*library.Document{doc})
		require.NoError(t, err)

		assert.Equal(t, 2, count)
		require.Len(t, repo.inserted, 2)
		for _, chunk := range repo.inserted {
			assert.Equal(t, doc.ID, chunk.SourceID)
			assert.Equal(t, "sent-group-1-overlap-0", chunk.Strategy)
			assert.Len(t, chunk.Embedding, 4)
		}
	})

	t.Run("改行はクリーニングされたテキストから除去される", func(t *testing.T) {
		repo := &stubChunkRepository{}
		embedder := &stubEmbedder{dimension: 4}
		chunker, err := NewSentenceChunker(3, 0, 1)
		require.NoError(t, err)

		svc := NewService(repo, chunker, embedder)

		doc := newDoc("A line\nwith a break inside the sentence.")
		_, err = svc.IndexDocuments(context.Background(), []*library.Document{doc})
		require.NoError(t, err)

		require.Len(t, repo.inserted, 1)
		assert.NotContains(t, repo.inserted[0].CleanedContent, "\n")
	})

	t.Run("重複チャンクは挿入件数に含まれない", func(t *testing.T) {
		repo := &stubChunkRepository{skip: map[string]bool{"First sentence here.": true}}
		embedder := &stubEmbedder{dimension: 4}
		chunker, err := NewSentenceChunker(1, 0, 1)
		require.NoError(t, err)

		svc := NewService(repo, chunker, embedder)

		doc := newDoc("First sentence here. Second sentence here.")
		count, err := svc.IndexDocuments(context.Background(), []*library.Document{doc})
		require.NoError(t, err)

		assert.Equal(t, 1, count)
	})

	t.Run("チャンクが生成されない場合は埋め込みを呼ばない", func(t *testing.T) {
		repo := &stubChunkRepository{}
		embedder := &stubEmbedder{dimension: 4}
		chunker, err := NewSentenceChunker(3, 1, 20)
		require.NoError(t, err)

		svc := NewService(repo, chunker, embedder)

		count, err := svc.IndexDocuments(context.Background(), []*library.Document{newDoc("")})
		require.NoError(t, err)

		assert.Equal(t, 0, count)
		assert.Empty(t, embedder.calls)
	})

	t.Run("次元が一致しない埋め込みはエラー", func(t *testing.T) {
		repo := &stubChunkRepository{}
		embedder := &mismatchedEmbedder{}
		chunker, err := NewSentenceChunker(1, 0, 1)
		require.NoError(t, err)

		svc := NewService(repo, chunker, embedder)

		_, err = svc.IndexDocuments(context.Background(), []*library.Document{newDoc("First sentence here.")})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		assert.Empty(t, repo.inserted)
	})
}

// mismatchedEmbedder は申告した次元と異なるベクトルを返す
type mismatchedEmbedder struct{}

func (s *mismatchedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, 3)
	}
	return vectors, nil
}

func (s *mismatchedEmbedder) Dimension() int {
	return 1536
}
