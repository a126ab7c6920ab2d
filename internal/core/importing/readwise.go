package importing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// readwiseRequiredColumns はReadwiseエクスポートに最低限必要な列
var readwiseRequiredColumns = []string{"Highlight", "Book Title"}

// ParseReadwiseCSV はReadwiseのエクスポートCSVから注釈を抽出する。
//
// Readwise CSVスキーマ:
//   - Highlight: string
//   - Book Title: string
//   - Book Author: string
//   - Amazon Book ID: string
//   - Note: string
//   - Color: string
//   - Tags: string
//   - Location Type: string (page または location)
//   - Location: int
//   - Highlighted at: datetime
//   - Document tags: string
//
// Note列が空でない行はハイライトに加えてノート注釈も生成する。
// 解析できない行はログに記録してスキップする
func ParseReadwiseCSV(r io.Reader, logger *slog.Logger) ([]*Annotation, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns, err := validateReadwiseHeader(header)
	if err != nil {
		return nil, err
	}

	var annotations []*Annotation
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			logger.Warn("skipping malformed readwise row", "row", rowNum, "error", err)
			continue
		}

		anno, note, err := readwiseRowToAnnotations(record, columns)
		if err != nil {
			logger.Warn("skipping invalid readwise row", "row", rowNum, "error", err)
			continue
		}

		annotations = append(annotations, anno)
		if note != nil {
			annotations = append(annotations, note)
		}
	}

	return annotations, nil
}

// validateReadwiseHeader はヘッダ行に必須列が存在するか検証し、
// 列名からインデックスへのマップを返す
func validateReadwiseHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.Trim(strings.TrimSpace(name), "\uFEFF")] = i
	}

	for _, required := range readwiseRequiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("invalid readwise csv: missing %q column", required)
		}
	}

	return columns, nil
}

// readwiseRowToAnnotations は1行をハイライト注釈（とあればノート注釈）に変換する
func readwiseRowToAnnotations(record []string, columns map[string]int) (*Annotation, *Annotation, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	highlight := field("Highlight")
	title := field("Book Title")
	if highlight == "" || title == "" {
		return nil, nil, fmt.Errorf("highlight and book title are required")
	}

	var authors []string
	if a := field("Book Author"); a != "" {
		authors = []string{a}
	}

	var locationType *string
	if lt := field("Location Type"); lt != "" {
		locationType = &lt
	}

	var locationStart *int
	if loc := field("Location"); loc != "" {
		if v, err := strconv.Atoi(loc); err == nil {
			locationStart = &v
		}
	}

	var annotatedAt *time.Time
	if raw := field("Highlighted at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			annotatedAt = &t
		} else if t, err := time.Parse("2006-01-02 15:04:05-07:00", raw); err == nil {
			annotatedAt = &t
		}
	}

	anno := &Annotation{
		Title:         title,
		Authors:       authors,
		Content:       highlight,
		Type:          AnnotationTypeHighlight,
		LocationType:  locationType,
		LocationStart: locationStart,
		AnnotatedAt:   annotatedAt,
	}

	var note *Annotation
	if n := field("Note"); n != "" {
		note = &Annotation{
			Title:         title,
			Authors:       authors,
			Content:       n,
			Type:          AnnotationTypeNote,
			LocationType:  locationType,
			LocationStart: locationStart,
			AnnotatedAt:   annotatedAt,
		}
	}

	return anno, note, nil
}
