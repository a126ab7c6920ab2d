package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinford/shiori/internal/core/importing"
)

// handleImportKindle はKindleの「My Clippings.txt」をアップロードして
// 注釈を取り込む
func (s *Server) handleImportKindle(c *gin.Context) {
	s.handleImport(c, func(r io.Reader) ([]*importing.Annotation, error) {
		return importing.ParseKindleClippings(r)
	})
}

// handleImportReadwise はReadwiseのエクスポートCSVをアップロードして
// 注釈を取り込む
func (s *Server) handleImportReadwise(c *gin.Context) {
	s.handleImport(c, func(r io.Reader) ([]*importing.Annotation, error) {
		return importing.ParseReadwiseCSV(r, s.logger)
	})
}

func (s *Server) handleImport(c *gin.Context, parse func(io.Reader) ([]*importing.Annotation, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	annotations, err := parse(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.importing.ImportAnnotations(c.Request.Context(), currentUserID(c), annotations)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"new_imports":    result.NewImports,
		"skipped":        result.Skipped,
		"indexed_chunks": result.IndexedChunks,
	})
}
