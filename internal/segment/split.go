package segment

import (
	"regexp"
	"strings"
)

// schemes whose last path segment may carry ";params" that are not part of
// the path.
var paramSchemes = map[string]struct{}{
	"": {}, "ftp": {}, "hdl": {}, "prospero": {}, "http": {}, "imap": {},
	"https": {}, "shttp": {}, "rtsp": {}, "rtspu": {}, "sip": {}, "sips": {},
	"mms": {}, "sftp": {}, "tel": {},
}

// splitRaw cuts rawURL into scheme, netloc and path without decoding
// anything. The query, fragment and path params are dropped.
func splitRaw(rawURL string) (scheme, netloc, path string) {
	rest := rawURL
	if i := strings.IndexByte(rest, ':'); i > 0 && isSchemeName(rest[:i]) {
		scheme = strings.ToLower(rest[:i])
		rest = rest[i+1:]
	}

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		netloc = rest[:end]
		rest = rest[end:]
	}

	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	path = rest
	if _, ok := paramSchemes[scheme]; ok {
		path = stripParams(path)
	}
	return scheme, netloc, path
}

func isSchemeName(s string) bool {
	c := s[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

func stripParams(path string) string {
	start := strings.LastIndexByte(path, '/')
	if start < 0 {
		start = 0
	}
	if i := strings.IndexByte(path[start:], ';'); i >= 0 {
		return path[:start+i]
	}
	return path
}

var hostSchemeRe = regexp.MustCompile(`^([A-Za-z0-9+\-.]+:)?//`)

// extractHost finds the hostname of rawURL independently of splitRaw, so
// that scheme-less input such as "example.com/login" still yields a host.
// The result is lowercase with userinfo, port and trailing dot removed.
func extractHost(rawURL string) string {
	netloc := hostSchemeRe.ReplaceAllString(rawURL, "")
	if i := strings.IndexAny(netloc, "/?#"); i >= 0 {
		netloc = netloc[:i]
	}
	if i := strings.LastIndexByte(netloc, '@'); i >= 0 {
		netloc = netloc[i+1:]
	}

	if strings.HasPrefix(netloc, "[") {
		if end := strings.IndexByte(netloc, ']'); end > 0 {
			return strings.ToLower(netloc[1:end])
		}
	}
	if i := strings.IndexByte(netloc, ':'); i >= 0 {
		netloc = netloc[:i]
	}
	host := strings.TrimRight(strings.TrimSpace(netloc), ".。．｡")
	return strings.ToLower(host)
}
