package importing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/shiori/internal/core/library"
)

type stubImportRepository struct {
	books       map[string]*library.Book
	createCalls int
	skipHashes  map[string]bool
	inserted    []*library.Document
}

func newStubImportRepository() *stubImportRepository {
	return &stubImportRepository{
		books:      make(map[string]*library.Book),
		skipHashes: make(map[string]bool),
	}
}

func bookMapKey(title, authors string) string {
	return title + "\x00" + authors
}

func (r *stubImportRepository) FindBook(_ context.Context, title, authors string) (*library.Book, error) {
	book, ok := r.books[bookMapKey(title, authors)]
	if !ok {
		return nil, library.ErrBookNotFound
	}
	return book, nil
}

func (r *stubImportRepository) CreateBook(_ context.Context, title, authors string) (*library.Book, error) {
	r.createCalls++
	book := &library.Book{ID: uuid.New(), Title: title, Authors: authors}
	r.books[bookMapKey(title, authors)] = book
	return book, nil
}

func (r *stubImportRepository) InsertDocuments(_ context.Context, docs []*library.Document) ([]*library.Document, error) {
	var rows []*library.Document
	for _, doc := range docs {
		if r.skipHashes[doc.ContentHash] {
			continue
		}
		rows = append(rows, doc)
	}
	r.inserted = append(r.inserted, rows...)
	return rows, nil
}

type stubIndexer struct {
	indexed      []*library.Document
	chunksPerDoc int
	calls        int
}

func (i *stubIndexer) IndexDocuments(_ context.Context, docs []*library.Document) (int, error) {
	i.calls++
	i.indexed = append(i.indexed, docs...)
	return len(docs) * i.chunksPerDoc, nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestImportAnnotations(t *testing.T) {
	userID := uuid.New()

	t.Run("書籍ごとにカタログ登録して文書を取り込む", func(t *testing.T) {
		repo := newStubImportRepository()
		indexer := &stubIndexer{chunksPerDoc: 2}
		svc := NewService(repo, indexer)

		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "ハイライト1", Type: AnnotationTypeHighlight},
			{Title: "本A", Authors: []string{"著者1"}, Content: "ハイライト2", Type: AnnotationTypeHighlight},
			{Title: "本B", Authors: []string{"著者2"}, Content: "ハイライト3", Type: AnnotationTypeHighlight},
		}

		result, err := svc.ImportAnnotations(context.Background(), userID, annotations)
		require.NoError(t, err)

		assert.Equal(t, 3, result.NewImports)
		assert.Equal(t, 0, result.Skipped)
		assert.Equal(t, 6, result.IndexedChunks)
		assert.Equal(t, 2, repo.createCalls)

		// 文書はカタログの書誌情報に揃えられる
		bookA := repo.books[bookMapKey("本A", "著者1")]
		require.NotNil(t, bookA)
		first := repo.inserted[0]
		require.NotNil(t, first.CatalogueID)
		assert.Equal(t, bookA.ID, *first.CatalogueID)
		assert.Equal(t, userID, first.UserID)
		assert.Equal(t, "本A", first.Title)
		assert.True(t, first.IsClip)
		assert.Equal(t, library.HashContent("ハイライト1"), first.ContentHash)
	})

	t.Run("既存の書籍は再利用する", func(t *testing.T) {
		repo := newStubImportRepository()
		existing := &library.Book{ID: uuid.New(), Title: "本A", Authors: "著者1"}
		repo.books[bookMapKey("本A", "著者1")] = existing
		svc := NewService(repo, &stubIndexer{chunksPerDoc: 1})

		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "ハイライト", Type: AnnotationTypeHighlight},
		}

		_, err := svc.ImportAnnotations(context.Background(), userID, annotations)
		require.NoError(t, err)

		assert.Equal(t, 0, repo.createCalls)
		require.NotNil(t, repo.inserted[0].CatalogueID)
		assert.Equal(t, existing.ID, *repo.inserted[0].CatalogueID)
	})

	t.Run("重複した注釈はスキップして挿入分のみインデックスする", func(t *testing.T) {
		repo := newStubImportRepository()
		repo.skipHashes[library.HashContent("既存のハイライト")] = true
		indexer := &stubIndexer{chunksPerDoc: 1}
		svc := NewService(repo, indexer)

		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "既存のハイライト", Type: AnnotationTypeHighlight},
			{Title: "本A", Authors: []string{"著者1"}, Content: "新しいハイライト", Type: AnnotationTypeHighlight},
		}

		result, err := svc.ImportAnnotations(context.Background(), userID, annotations)
		require.NoError(t, err)

		assert.Equal(t, 1, result.NewImports)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.IndexedChunks)
		require.Len(t, indexer.indexed, 1)
		assert.Equal(t, "新しいハイライト", indexer.indexed[0].Content)
	})

	t.Run("全件重複の場合はインデックスを呼ばない", func(t *testing.T) {
		repo := newStubImportRepository()
		repo.skipHashes[library.HashContent("既存のハイライト")] = true
		indexer := &stubIndexer{chunksPerDoc: 1}
		svc := NewService(repo, indexer)

		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "既存のハイライト", Type: AnnotationTypeHighlight},
		}

		result, err := svc.ImportAnnotations(context.Background(), userID, annotations)
		require.NoError(t, err)

		assert.Equal(t, 0, result.NewImports)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 0, result.IndexedChunks)
		assert.Equal(t, 0, indexer.calls)
	})

	t.Run("注釈が空の場合は何もしない", func(t *testing.T) {
		repo := newStubImportRepository()
		indexer := &stubIndexer{chunksPerDoc: 1}
		svc := NewService(repo, indexer)

		result, err := svc.ImportAnnotations(context.Background(), userID, nil)
		require.NoError(t, err)
		assert.Equal(t, &Result{}, result)
		assert.Equal(t, 0, indexer.calls)
	})

	t.Run("注釈日時があれば文書の作成日時に採用する", func(t *testing.T) {
		repo := newStubImportRepository()
		svc := NewService(repo, &stubIndexer{chunksPerDoc: 1})

		annotatedAt := mustTime(t, "2024-03-01T10:00:00Z")
		annotations := []*Annotation{
			{Title: "本A", Authors: []string{"著者1"}, Content: "ハイライト", Type: AnnotationTypeHighlight, AnnotatedAt: &annotatedAt},
		}

		_, err := svc.ImportAnnotations(context.Background(), userID, annotations)
		require.NoError(t, err)
		assert.Equal(t, annotatedAt, repo.inserted[0].CreatedAt)
	})
}
