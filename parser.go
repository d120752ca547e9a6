package htmldoc

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	headingSelector = "h1, h2, h3, h4, h5, h6"
	maxSlugLength   = 50
	untitled        = "Untitled"
)

// Chapter is one heading and the content up to the next heading.
// Children always have a greater Level than their parent.
type Chapter struct {
	ID       string
	Title    string
	Level    int
	Content  string
	Children []Chapter
}

// DocumentMetadata holds author, version and date plus any other named meta tags.
type DocumentMetadata struct {
	Author       string
	Version      string
	Date         string
	CustomFields map[string]string
}

// ParsedDocument is the structure extracted from an HTML document.
type ParsedDocument struct {
	Title    string
	Chapters []Chapter
	Metadata DocumentMetadata
	RawHTML  string
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9_\s]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	authorInText = regexp.MustCompile(`Author:\s*(.+)`)
	versionInTxt = regexp.MustCompile(`Version:\s*([0-9.]+)`)
	dateInText   = regexp.MustCompile(`Date:\s*(.+)`)
)

// ParseDocument reads and parses the HTML file at path.
func ParseDocument(path string) (*ParsedDocument, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrInputNotFound, path, err)
		}
		return nil, newError(ErrLoadFailed, path, err)
	}
	doc, err := ParseReader(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrLoadFailed, path, err)
	}
	return doc, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(content string) (*ParsedDocument, error) {
	return ParseReader(strings.NewReader(content))
}

// ParseReader parses HTML from r, decoding any declared charset to UTF-8.
func ParseReader(r io.Reader) (*ParsedDocument, error) {
	utf8Reader, err := charset.NewReader(r, "")
	if err != nil {
		return nil, newError(ErrLoadFailed, "decoding charset", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, newError(ErrLoadFailed, "parsing HTML", err)
	}

	raw, err := doc.Html()
	if err != nil {
		return nil, newError(ErrLoadFailed, "serializing HTML", err)
	}

	return &ParsedDocument{
		Title:    extractTitle(doc),
		Chapters: ExtractChapters(doc),
		Metadata: ExtractMetadata(doc),
		RawHTML:  raw,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return untitled
}

// ExtractChapters builds the heading forest of doc in document order.
// A heading nests under the closest preceding heading of a lower level,
// so skipped levels (h1 then h3) still nest directly.
func ExtractChapters(doc *goquery.Document) []Chapter {
	type frame struct {
		ch    *Chapter
		level int
	}

	var roots []*Chapter
	var stack []frame

	doc.Find(headingSelector).Each(func(i int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		title := strings.TrimSpace(s.Text())

		ch := &Chapter{
			ID:      headingID(s, title, i),
			Title:   title,
			Level:   level,
			Content: contentUntilNextHeading(s.Nodes[0]),
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, ch)
		} else {
			// Only the parent's last child can be on the stack, so the
			// slot pointer stays valid until the parent grows again.
			parent := stack[len(stack)-1].ch
			parent.Children = append(parent.Children, *ch)
			ch = &parent.Children[len(parent.Children)-1]
		}
		stack = append(stack, frame{ch: ch, level: level})
	})

	out := make([]Chapter, 0, len(roots))
	for _, r := range roots {
		out = append(out, *r)
	}
	return out
}

// headingID returns the id attribute, else a slug of title, else heading-<index>.
func headingID(s *goquery.Selection, title string, index int) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return id
	}
	if slug := Slugify(title); slug != "" {
		return slug
	}
	return "heading-" + strconv.Itoa(index)
}

// Slugify lowercases s, drops everything but ASCII letters, digits,
// underscores and whitespace, joins words with hyphens, and truncates to 50.
func Slugify(s string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(s), "")
	slug = slugSpaces.ReplaceAllString(strings.TrimSpace(slug), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// contentUntilNextHeading serializes the siblings after n up to the next heading.
func contentUntilNextHeading(n *html.Node) string {
	var buf strings.Builder
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if isHeading(sib) {
			break
		}
		_ = html.Render(&buf, sib)
	}
	return buf.String()
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return false
	}
	return n.Data[1] >= '1' && n.Data[1] <= '6'
}

// ExtractMetadata reads author, version and date from meta tags, falling
// back to "Author:", "Version:" and "Date:" lines in the body text.
// Other named meta tags, except viewport and charset, go to CustomFields.
func ExtractMetadata(doc *goquery.Document) DocumentMetadata {
	meta := DocumentMetadata{CustomFields: map[string]string{}}

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		switch strings.ToLower(name) {
		case "author":
			if meta.Author == "" {
				meta.Author = content
			}
		case "version":
			if meta.Version == "" {
				meta.Version = content
			}
		case "date":
			if meta.Date == "" {
				meta.Date = content
			}
		case "viewport", "charset":
		default:
			meta.CustomFields[name] = content
		}
	})

	if meta.Author != "" && meta.Version != "" && meta.Date != "" {
		return meta
	}

	text := doc.Find("body").Text()
	if meta.Author == "" {
		meta.Author = firstMatch(authorInText, text)
	}
	if meta.Version == "" {
		meta.Version = firstMatch(versionInTxt, text)
	}
	if meta.Date == "" {
		meta.Date = firstMatch(dateInText, text)
	}
	return meta
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
