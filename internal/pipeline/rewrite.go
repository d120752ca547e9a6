package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-htmldoc/internal/fileutil"
)

// refAttrs maps selectors to the attribute holding a local reference.
// Media and srcset are left alone: neither engine embeds them.
var refAttrs = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"a[href]", "href"},
	{`link[rel="stylesheet"][href]`, "href"},
}

// RewriteRelativeRefs points relative references in doc at sourceDir using
// file:// URLs, so the document can be moved elsewhere before loading.
// References that escape sourceDir are left untouched.
// Returns the number of rewritten attributes.
func RewriteRelativeRefs(doc *goquery.Document, sourceDir string) (int, error) {
	if sourceDir == "" {
		return 0, nil
	}
	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, ra := range refAttrs {
		doc.Find(ra.selector).Each(func(_ int, s *goquery.Selection) {
			val, _ := s.Attr(ra.attr)
			rel, fragment, ok := localRef(val)
			if !ok {
				return
			}
			abs := filepath.Join(root, filepath.FromSlash(rel))
			if !fileutil.IsWithin(abs, root) {
				return
			}
			s.SetAttr(ra.attr, fileutil.FileURL(abs, fragment))
			count++
		})
	}
	return count, nil
}

// localRef splits a reference into a relative path and fragment.
// ok is false for empty refs, anchors, absolute paths, and anything with a
// scheme or host (http:, data:, mailto:, //cdn...).
func localRef(ref string) (path, fragment string, ok bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return "", "", false
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return "", "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		// A Windows drive letter parses as a scheme but IsAbs caught it above.
		return "", "", false
	}
	if u.Path == "" {
		return "", "", false
	}
	return u.Path, u.Fragment, true
}
