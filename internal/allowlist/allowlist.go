// Package allowlist holds the trusted registered domains that short-circuit
// classification. A Set is built once and never mutated afterwards, so it is
// shared between requests without locking.
package allowlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrEmptyDomain is returned when a source contains a blank domain entry
// after normalization.
var ErrEmptyDomain = errors.New("allowlist: empty domain")

// defaultDomains are the registered domains trusted out of the box.
var defaultDomains = []string{
	"google.com", "youtube.com", "facebook.com", "instagram.com",
	"reddit.com", "wikipedia.org", "twitter.com", "amazon.com",
	"linkedin.com", "netflix.com", "microsoft.com", "github.com",
	"paypal.com", "apple.com", "bing.com", "chatgpt.com",
}

// Set is an immutable set of lowercase registered domains.
type Set struct {
	domains map[string]struct{}
}

// New builds a Set from domains. Entries are normalized; blank entries are
// skipped.
func New(domains ...string) *Set {
	s := &Set{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		if n := Normalize(d); n != "" {
			s.domains[n] = struct{}{}
		}
	}
	return s
}

// Default returns the built-in trusted set.
func Default() *Set {
	return New(defaultDomains...)
}

// Normalize lowercases d and strips surrounding space and a trailing dot.
func Normalize(d string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}

// IsTrusted reports whether registeredDomain is exactly a member of the set.
// There is no suffix or substring matching: callers must pass the
// public-suffix-aware registered domain, not a hostname.
func (s *Set) IsTrusted(registeredDomain string) bool {
	if s == nil {
		return false
	}
	n := Normalize(registeredDomain)
	if n == "" {
		return false
	}
	_, ok := s.domains[n]
	return ok
}

// Len returns the number of trusted domains.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.domains)
}

// Domains returns the members sorted alphabetically.
func (s *Set) Domains() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Union returns a new Set holding the members of s and other.
func (s *Set) Union(other *Set) *Set {
	return New(append(s.Domains(), other.Domains()...)...)
}

// ReadDomains parses one domain per line. Blank lines and text after '#'
// are ignored.
func ReadDomains(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if d := Normalize(line); d != "" {
			out = append(out, d)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads a trusted-domain file (see ReadDomains) into a Set.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening allowlist: %w", err)
	}
	defer f.Close()

	domains, err := ReadDomains(f)
	if err != nil {
		return nil, fmt.Errorf("reading allowlist %s: %w", path, err)
	}
	return New(domains...), nil
}
