package importing

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// kindleSeparator は「My Clippings.txt」の注釈区切り行
const kindleSeparator = "=========="

var (
	pagePattern        = regexp.MustCompile(`(?i)page (\d+)-(\d+)`)
	pageSinglePattern  = regexp.MustCompile(`(?i)page (\d+)`)
	locationPattern    = regexp.MustCompile(`(?i)location (\d+)-(\d+)`)
	locationSinglePat  = regexp.MustCompile(`(?i)location (\d+)`)
	numberRangePattern = regexp.MustCompile(`(\d+)-(\d+)`)
	annotatedAtPattern = regexp.MustCompile(`(?i)(\d{1,2}\s\w+\s\d{4}\s\d{2}:\d{2}:\d{2})`)
)

const kindleDateLayout = "2 January 2006 15:04:05"

// ParseKindleClippings はKindleの「My Clippings.txt」から注釈を抽出し、
// ファイル内の出現順に返す。
//
// 各注釈は「タイトル・著者行」「メタデータ行」「本文」「区切り行」の
// 繰り返しで構成される。不正な区切りや空行は読み飛ばす
func ParseKindleClippings(r io.Reader) ([]*Annotation, error) {
	var (
		annotations []*Annotation
		current     kindleEntry
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		// \uFEFF はBOM（byte order mark）
		line := strings.Trim(strings.TrimSpace(scanner.Text()), "\uFEFF")

		// 空行はスキップ
		if line == "" {
			continue
		}

		switch {
		case !current.parsedTitle:
			current.title = extractTitle(line)
			current.authors = extractAuthors(line)
			current.parsedTitle = true

		case !current.parsedMetadata:
			annotationType := extractAnnotationType(line)
			if annotationType == "" {
				annotationType = AnnotationTypeHighlight
			}
			current.annotationType = annotationType
			current.pageStart, current.pageEnd = extractPage(line)
			current.locationStart, current.locationEnd = extractLocation(line)
			current.annotatedAt = extractDate(line)
			current.parsedMetadata = true

		case line == kindleSeparator:
			// 注釈の終端
			if anno := current.build(); isValidAnnotation(anno) {
				annotations = append(annotations, anno)
			}
			current = kindleEntry{}

		default:
			current.content += line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// 末尾に区切り行がない最後の注釈
	if current.parsedTitle && current.parsedMetadata && current.content != "" {
		if anno := current.build(); isValidAnnotation(anno) {
			annotations = append(annotations, anno)
		}
	}

	return annotations, nil
}

// kindleEntry はパース中の1注釈分の状態を保持する
type kindleEntry struct {
	parsedTitle    bool
	parsedMetadata bool

	title          string
	authors        []string
	annotationType AnnotationType
	pageStart      *int
	pageEnd        *int
	locationStart  *int
	locationEnd    *int
	annotatedAt    *time.Time
	content        string
}

func (e *kindleEntry) build() *Annotation {
	locationType := "location"
	return &Annotation{
		Title:         e.title,
		Authors:       e.authors,
		Content:       e.content,
		Type:          e.annotationType,
		LocationType:  &locationType,
		LocationStart: e.locationStart,
		LocationEnd:   e.locationEnd,
		PageStart:     e.pageStart,
		PageEnd:       e.pageEnd,
		AnnotatedAt:   e.annotatedAt,
	}
}

// isValidAnnotation は取り込み対象の注釈かどうかを判定する。
// 本文のない注釈、タイトルのない注釈、ブックマークは対象外
func isValidAnnotation(a *Annotation) bool {
	if len(a.Content) == 0 {
		return false
	}
	if a.Title == "" {
		return false
	}
	if a.Type == AnnotationTypeBookmark {
		return false
	}
	return true
}

// extractTitle はタイトル・著者行から書籍タイトルを返す。
// タイトルは最初の開き括弧より前の部分
func extractTitle(line string) string {
	openBracket := strings.Index(line, "(")
	if openBracket == -1 {
		return line
	}
	return strings.TrimSpace(line[:openBracket])
}

// extractAuthors はタイトル・著者行から著者名リストを返す。
// 著者は最後の対応が取れた括弧内にあり、ネストした括弧も扱う。
// 各著者名は `<first name> <other names>` の形式に整形する
func extractAuthors(line string) []string {
	var stack []int
	lastOpening := -1
	lastClosing := -1

	for i, ch := range line {
		switch ch {
		case '(':
			stack = append(stack, i)
		case ')':
			if len(stack) > 0 {
				lastOpening = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				lastClosing = i
			}
		}
	}

	if lastOpening == -1 || lastClosing == -1 || lastClosing < lastOpening {
		return nil
	}

	authorsStr := line[lastOpening+1 : lastClosing]
	if len(authorsStr) == 0 {
		return nil
	}

	// 複数著者の場合に対応する。
	// 著者名は通常 '<last name>, <first name>' と書かれている
	authors := strings.Split(authorsStr, AuthorSeparator)
	result := make([]string, 0, len(authors))
	for _, name := range authors {
		result = append(result, swapPartsOfName(name))
	}
	return result
}

// extractAnnotationType はメタデータ行から注釈種別を抽出する。
// 判別できない場合は空文字を返す
func extractAnnotationType(line string) AnnotationType {
	if strings.Contains(line, "Note") {
		return AnnotationTypeNote
	}
	if strings.Contains(line, "Bookmark") {
		return AnnotationTypeBookmark
	}
	if strings.Contains(line, "Highlight") {
		return AnnotationTypeHighlight
	}
	return ""
}

// extractPage はメタデータ行からページ範囲を抽出する。存在しない場合は(nil, nil)
func extractPage(line string) (*int, *int) {
	if m := pagePattern.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	if m := pageSinglePattern.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), nil
	}

	// フォールバック: 数値範囲のみ
	if m := numberRangePattern.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	return nil, nil
}

// extractLocation はメタデータ行からロケーション範囲を抽出する。
// 存在しない場合は(nil, nil)
func extractLocation(line string) (*int, *int) {
	if m := locationPattern.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	if m := locationSinglePat.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), nil
	}

	// フォールバック: 数値範囲のみ
	if m := numberRangePattern.FindStringSubmatch(line); m != nil {
		return atoiPtr(m[1]), atoiPtr(m[2])
	}
	return nil, nil
}

// extractDate はメタデータ行から注釈日時を抽出する。
//
// 日時はメタデータ行に次の形式で記録される:
// '- Your Highlight on page 43 | location 973-974 |
// Added on Thursday, 28 January 2016 08:33:31'
func extractDate(line string) *time.Time {
	m := annotatedAtPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	t, err := time.Parse(kindleDateLayout, m[1])
	if err != nil {
		return nil
	}
	return &t
}

// swapPartsOfName は著者名を `<last names>, <first name>` から
// `<first name> <last names>` に整形する
func swapPartsOfName(name string) string {
	parts := strings.Split(name, ",")
	if len(parts) == 1 {
		return strings.TrimSpace(parts[0])
	}

	firstName := strings.TrimSpace(parts[1])
	lastNames := strings.TrimSpace(parts[0])
	return firstName + " " + lastNames
}

func atoiPtr(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
