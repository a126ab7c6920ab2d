package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jinford/shiori/internal/core/library"
)

// LibraryRepository は library.Repository を実装する PostgreSQL リポジトリ
type LibraryRepository struct {
	db DBTX
}

// NewLibraryRepository は新しい LibraryRepository を作成する
func NewLibraryRepository(db DBTX) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// コンパイル時の型チェック
var _ library.Repository = (*LibraryRepository)(nil)

func (r *LibraryRepository) ListBooks(ctx context.Context, userID uuid.UUID) ([]*library.Book, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT b.id, b.title, b.authors, b.thumbnail_path
		FROM book b
		JOIN document d ON d.catalogue_id = b.id
		WHERE d.user_id = $1
		ORDER BY b.title
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

func (r *LibraryRepository) SearchBooks(ctx context.Context, userID uuid.UUID, keyword string) ([]*library.Book, error) {
	pattern := "%" + keyword + "%"
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT b.id, b.title, b.authors, b.thumbnail_path
		FROM book b
		JOIN document d ON d.catalogue_id = b.id
		WHERE d.user_id = $1
		  AND (b.title ILIKE $2 OR b.authors ILIKE $2)
		ORDER BY b.title
	`, userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

func (r *LibraryRepository) FindBook(ctx context.Context, title, authors string) (*library.Book, error) {
	var book library.Book
	err := r.db.QueryRow(ctx, `
		SELECT id, title, authors, thumbnail_path
		FROM book
		WHERE title = $1 AND authors = $2
	`, title, authors).Scan(&book.ID, &book.Title, &book.Authors, &book.ThumbnailPath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, library.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

func (r *LibraryRepository) CreateBook(ctx context.Context, title, authors string) (*library.Book, error) {
	book := &library.Book{
		ID:      uuid.New(),
		Title:   title,
		Authors: authors,
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO book (id, title, authors)
		VALUES ($1, $2, $3)
	`, book.ID, book.Title, book.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

func (r *LibraryRepository) ListDocuments(ctx context.Context, userID uuid.UUID) ([]*library.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, catalogue_id, title, authors, content, content_hash, is_clip,
		       location_type, location_start, location_end, created_at, updated_at
		FROM document
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*library.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (r *LibraryRepository) GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*library.Document, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, catalogue_id, title, authors, content, content_hash, is_clip,
		       location_type, location_start, location_end, created_at, updated_at
		FROM document
		WHERE id = $1 AND user_id = $2
	`, documentID, userID)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, library.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *LibraryRepository) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM document
		WHERE id = $1 AND user_id = $2
	`, documentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return library.ErrDocumentNotFound
	}
	return nil
}

func (r *LibraryRepository) InsertDocuments(ctx context.Context, docs []*library.Document) ([]*library.Document, error) {
	var inserted []*library.Document
	for _, doc := range docs {
		var id uuid.UUID
		err := r.db.QueryRow(ctx, `
			INSERT INTO document (id, user_id, catalogue_id, title, authors, content, content_hash,
			                      is_clip, location_type, location_start, location_end, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (user_id, content_hash) DO NOTHING
			RETURNING id
		`,
			doc.ID, doc.UserID, doc.CatalogueID, doc.Title, doc.Authors, doc.Content, doc.ContentHash,
			doc.IsClip, doc.LocationType, doc.LocationStart, doc.LocationEnd, doc.CreatedAt,
		).Scan(&id)
		if err != nil {
			// 一意制約に衝突した行はスキップする
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
		inserted = append(inserted, doc)
	}
	return inserted, nil
}

func scanBooks(rows pgx.Rows) ([]*library.Book, error) {
	var books []*library.Book
	for rows.Next() {
		var book library.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Authors, &book.ThumbnailPath); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, &book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

func scanDocument(row pgx.Row) (*library.Document, error) {
	var doc library.Document
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.CatalogueID, &doc.Title, &doc.Authors, &doc.Content,
		&doc.ContentHash, &doc.IsClip, &doc.LocationType, &doc.LocationStart, &doc.LocationEnd,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}
