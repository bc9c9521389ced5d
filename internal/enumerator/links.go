package enumerator

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/phishcatcher/internal/logging"
)

// linkAttrs are the element/attribute pairs that carry navigable URLs.
var linkAttrs = []struct{ selector, attr string }{
	{"a[href]", "href"},
	{"area[href]", "href"},
	{"form[action]", "action"},
	{"iframe[src]", "src"},
	{"frame[src]", "src"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"link[href]", "href"},
	{"meta[http-equiv]", "content"},
}

// textURL also matches defanged links ("hxxp://", "[.]") as they appear in
// threat reports.
var textURL = regexp.MustCompile(`(?i)h(?:tt|xx)ps?://[^\s"'<>]+`)

var skipSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "about:"}

// LinkExtractor enumerates the links of an HTML document on disk.
type LinkExtractor struct {
	// Base resolves relative links when the document has no <base href>.
	Base string

	// Text also scans text nodes and inline scripts for absolute URLs.
	Text bool

	logger logging.Logger
}

// NewLinkExtractor creates a LinkExtractor. logger may be nil.
func NewLinkExtractor(base string, text bool, logger logging.Logger) *LinkExtractor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LinkExtractor{
		Base:   base,
		Text:   text,
		logger: logger.With(logging.Field{Key: "component", Value: "link-extractor"}),
	}
}

// Enumerate reads the HTML file at path and returns its links.
func (e *LinkExtractor) Enumerate(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return e.Extract(f)
}

// Extract returns the unique links of the document in r, in document order.
// Relative links are resolved; values that do not parse are kept verbatim
// so the classifier can report them.
func (e *LinkExtractor) Extract(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	base := e.baseURL(doc)
	seen := make(map[string]struct{})
	var out []string
	add := func(link string) {
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}

	// Walk every element once so links come out in document order.
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, la := range linkAttrs {
			if !s.Is(la.selector) {
				continue
			}
			val, _ := s.Attr(la.attr)
			if la.attr == "content" {
				val = refreshTarget(s, val)
			}
			add(e.resolve(base, val))
		}
		if e.Text {
			for _, t := range ownText(s) {
				for _, m := range textURL.FindAllString(t, -1) {
					add(strings.TrimRight(m, ".,;)"))
				}
			}
		}
	})
	return out, nil
}

func (e *LinkExtractor) baseURL(doc *goquery.Document) *url.URL {
	raw := e.Base
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		raw = strings.TrimSpace(href)
	}
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		e.logger.Warn("ignoring unusable base url", logging.Field{Key: "base", Value: raw})
		return nil
	}
	return u
}

func (e *LinkExtractor) resolve(base *url.URL, val string) string {
	val = strings.TrimSpace(val)
	if val == "" || strings.HasPrefix(val, "#") {
		return ""
	}
	lower := strings.ToLower(val)
	for _, s := range skipSchemes {
		if strings.HasPrefix(lower, s) {
			return ""
		}
	}
	ref, err := url.Parse(val)
	if err != nil {
		e.logger.Debug("keeping unparsable link", logging.Field{Key: "link", Value: val}, logging.Field{Key: "error", Value: err})
		return val
	}
	if ref.IsAbs() || base == nil {
		return val
	}
	return base.ResolveReference(ref).String()
}

// refreshTarget extracts the URL of <meta http-equiv="refresh"
// content="0; url=...">.
func refreshTarget(s *goquery.Selection, content string) string {
	equiv, _ := s.Attr("http-equiv")
	if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
		return ""
	}
	_, after, ok := strings.Cut(content, ";")
	if !ok {
		return ""
	}
	after = strings.TrimSpace(after)
	if len(after) >= 4 && strings.EqualFold(after[:4], "url=") {
		return strings.Trim(after[4:], `'" `)
	}
	return ""
}

// ownText returns the text nodes directly under s.
func ownText(s *goquery.Selection) []string {
	var out []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			out = append(out, c.Text())
		}
	})
	return out
}
