// Package segment splits a URL into the parts the feature builder works on:
// the raw scheme/netloc/path triple and the public-suffix-aware domain
// breakdown of its host.
package segment

import (
	"fmt"
	"net/http/cookiejar"
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Parts is the immutable result of segmenting one URL.
//
// Scheme, Netloc and Path are raw substrings of the input (never decoded),
// because feature lengths are measured on what the user submitted.
// Domain, Subdomain, Suffix and RegisteredDomain are lowercase.
type Parts struct {
	Scheme string `json:"scheme"`
	Netloc string `json:"netloc"`
	Path   string `json:"path"`

	Domain           string `json:"domain"`
	Subdomain        string `json:"subdomain"`
	Suffix           string `json:"suffix"`
	RegisteredDomain string `json:"registered_domain"`
}

// ParseError reports a URL that net/url rejects as structurally invalid.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Segmenter is safe for concurrent use as long as its suffix list is.
type Segmenter struct {
	suffixes cookiejar.PublicSuffixList
}

// New returns a Segmenter backed by list. A nil list selects the copy of the
// public suffix list compiled into golang.org/x/net/publicsuffix.
func New(list cookiejar.PublicSuffixList) *Segmenter {
	if list == nil {
		list = publicsuffix.List
	}
	return &Segmenter{suffixes: list}
}

// SuffixList describes the list in use, for logs.
func (s *Segmenter) SuffixList() string {
	return s.suffixes.String()
}

// Segment parses rawURL. It fails only when net/url rejects the string; any
// host that survives parsing produces a best-effort domain breakdown.
func (s *Segmenter) Segment(rawURL string) (Parts, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return Parts{}, &ParseError{URL: rawURL, Err: err}
	}

	scheme, netloc, path := splitRaw(rawURL)
	parts := Parts{
		Scheme: scheme,
		Netloc: netloc,
		Path:   path,
	}
	s.splitHost(&parts, extractHost(rawURL))
	return parts, nil
}

func (s *Segmenter) splitHost(p *Parts, host string) {
	if host == "" {
		return
	}
	if _, err := netip.ParseAddr(host); err == nil {
		p.Domain = host
		return
	}

	// The compiled and file-loaded lists both hold punycode rules.
	ascii := host
	if a, err := idna.Lookup.ToASCII(host); err == nil && a != "" {
		ascii = a
	}
	labels := strings.Split(host, ".")
	if asciiLabels := strings.Split(ascii, "."); len(asciiLabels) != len(labels) {
		labels = asciiLabels
	}

	suffix := s.suffixes.PublicSuffix(ascii)
	n := strings.Count(suffix, ".") + 1
	if n >= len(labels) {
		p.Suffix = strings.Join(labels, ".")
		return
	}

	cut := len(labels) - n
	p.Suffix = strings.Join(labels[cut:], ".")
	p.Domain = labels[cut-1]
	p.Subdomain = strings.Join(labels[:cut-1], ".")
	if p.Domain != "" {
		p.RegisteredDomain = p.Domain + "." + p.Suffix
	}
}
