package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/idna"
)

const privateMarker = "===BEGIN PRIVATE DOMAINS==="

// SuffixList is a public suffix list parsed from the text format published at
// publicsuffix.org. It implements cookiejar.PublicSuffixList and is read-only
// once built.
type SuffixList struct {
	source     string
	rules      map[string]struct{}
	wildcards  map[string]struct{}
	exceptions map[string]struct{}
}

// LoadSuffixList reads a public_suffix_list.dat file. Private-section rules
// (github.io, blogspot.com, ...) are kept unless icannOnly is set.
func LoadSuffixList(path string, icannOnly bool) (*SuffixList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening suffix list: %w", err)
	}
	defer f.Close()

	l, err := ParseSuffixList(f, icannOnly)
	if err != nil {
		return nil, fmt.Errorf("parsing suffix list %s: %w", path, err)
	}
	l.source = path
	return l, nil
}

// ParseSuffixList parses the public suffix list format from r.
func ParseSuffixList(r io.Reader, icannOnly bool) (*SuffixList, error) {
	l := &SuffixList{
		source:     "reader",
		rules:      map[string]struct{}{},
		wildcards:  map[string]struct{}{},
		exceptions: map[string]struct{}{},
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "//") {
			if icannOnly && strings.Contains(line, privateMarker) {
				break
			}
			continue
		}
		if line == "" {
			continue
		}
		// Only the first token is the rule; the rest of the line is ignored.
		rule := strings.ToLower(strings.Fields(line)[0])

		switch {
		case strings.HasPrefix(rule, "!"):
			l.exceptions[toASCII(rule[1:])] = struct{}{}
		case strings.HasPrefix(rule, "*."):
			l.wildcards[toASCII(rule[2:])] = struct{}{}
		default:
			l.rules[toASCII(rule)] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, fmt.Errorf("no rules found")
	}
	return l, nil
}

func toASCII(rule string) string {
	if a, err := idna.ToASCII(rule); err == nil && a != "" {
		return a
	}
	return rule
}

// Len is the number of rules of every kind.
func (l *SuffixList) Len() int {
	return len(l.rules) + len(l.wildcards) + len(l.exceptions)
}

// PublicSuffix returns the longest matching suffix of domain, honouring
// wildcard and exception rules. Unlisted TLDs fall back to the last label,
// the list's implicit "*" rule.
func (l *SuffixList) PublicSuffix(domain string) string {
	labels := strings.Split(strings.ToLower(domain), ".")
	for i := range labels {
		candidate := strings.Join(labels[i:], ".")
		if _, ok := l.exceptions[candidate]; ok {
			return strings.Join(labels[i+1:], ".")
		}
		if _, ok := l.wildcards[candidate]; ok && i > 0 {
			return strings.Join(labels[i-1:], ".")
		}
		if _, ok := l.rules[candidate]; ok {
			return candidate
		}
	}
	return labels[len(labels)-1]
}

// String identifies the list, as cookiejar.PublicSuffixList requires.
func (l *SuffixList) String() string {
	return fmt.Sprintf("%s (%d rules)", l.source, l.Len())
}
