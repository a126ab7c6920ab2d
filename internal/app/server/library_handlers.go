package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinford/shiori/internal/core/library"
)

// defaultRelatedLimit は関連文書取得のデフォルト件数
const defaultRelatedLimit = 5

func (s *Server) handleListBooks(c *gin.Context) {
	userID := currentUserID(c)

	var (
		books []*library.Book
		err   error
	)
	if keyword := c.Query("search"); keyword != "" {
		books, err = s.library.SearchBooks(c.Request.Context(), userID, keyword)
	} else {
		books, err = s.library.ListBooks(c.Request.Context(), userID)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": bookViews(books)})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.library.ListDocuments(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		views = append(views, documentView(doc))
	}
	c.JSON(http.StatusOK, gin.H{"documents": views})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := s.library.GetDocument(c.Request.Context(), currentUserID(c), documentID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, documentView(doc))
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	if err := s.library.DeleteDocument(c.Request.Context(), currentUserID(c), documentID); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleRelatedDocuments は指定した文書に内容が近い他の文書を返す
func (s *Server) handleRelatedDocuments(c *gin.Context) {
	userID := currentUserID(c)

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	limit := defaultRelatedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	// 文書の存在と所有を先に確認する
	if _, err := s.library.GetDocument(c.Request.Context(), userID, documentID); err != nil {
		s.respondError(c, err)
		return
	}

	matches, err := s.retrieval.FindSimilarDocuments(c.Request.Context(), userID, documentID, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	related := make([]gin.H, 0, len(matches))
	for _, match := range matches {
		doc, err := s.library.GetDocument(c.Request.Context(), userID, match.SourceID)
		if err != nil {
			s.respondError(c, err)
			return
		}
		view := documentView(doc)
		view["score"] = match.Score
		related = append(related, view)
	}

	c.JSON(http.StatusOK, gin.H{"related": related})
}

func bookViews(books []*library.Book) []gin.H {
	views := make([]gin.H, 0, len(books))
	for _, book := range books {
		views = append(views, gin.H{
			"id":             book.ID,
			"title":          book.Title,
			"authors":        book.Authors,
			"thumbnail_path": book.ThumbnailPath,
		})
	}
	return views
}

func documentView(doc *library.Document) gin.H {
	return gin.H{
		"id":             doc.ID,
		"catalogue_id":   doc.CatalogueID,
		"title":          doc.Title,
		"authors":        doc.Authors,
		"content":        doc.Content,
		"is_clip":        doc.IsClip,
		"location_type":  doc.LocationType,
		"location_start": doc.LocationStart,
		"location_end":   doc.LocationEnd,
		"created_at":     doc.CreatedAt,
		"updated_at":     doc.UpdatedAt,
	}
}
