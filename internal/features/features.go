// Package features turns a sanitized URL and its segmented parts into the
// fixed, ordered numeric vector the classifier was trained on.
package features

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/segment"
)

// Keyword sets are part of the model contract, like the field order.
var (
	suspiciousKeywords = []string{"login", "bank", "verify", "secure", "account", "update"}
	freeHosting        = []string{"000webhost", "freenom", "infinityfree"}
	shorteners         = []string{"bit.ly", "tinyurl.com", "goo.gl", "ow.ly", "is.gd"}
	brands             = []string{"paypal", "citi", "facebook", "google", "amazon"}
)

var ipv4Prefix = regexp.MustCompile(`^(?:[0-9]{1,3}\.){3}[0-9]{1,3}`)

// ErrEmptyURL is the degenerate input for which ratios and entropy are
// undefined.
var ErrEmptyURL = errors.New("empty url")

// ExtractionError means no vector could be produced for a URL. It is never
// replaced by a zero vector.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not analyze URL: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Vector is an ordered feature vector of length Width. Index i always means
// Names[i].
type Vector []float64

// NamedValue pairs a feature name with its value.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Named returns the vector with names attached, in index order.
func (v Vector) Named() []NamedValue {
	out := make([]NamedValue, len(v))
	for i, x := range v {
		name := fmt.Sprintf("feature_%d", i)
		if i < Width {
			name = Names[i]
		}
		out[i] = NamedValue{Name: name, Value: x}
	}
	return out
}

// Builder computes vectors. It only reads the trusted set, so one Builder
// serves any number of goroutines.
type Builder struct {
	trusted *allowlist.Set
}

// NewBuilder returns a Builder that flags members of trusted in the last
// field. A nil set trusts nothing.
func NewBuilder(trusted *allowlist.Set) *Builder {
	return &Builder{trusted: trusted}
}

// Build derives the vector for sanitizedURL. It fails with *ExtractionError
// on empty input or if the computation faults; a fault never escapes as a
// panic.
func (b *Builder) Build(sanitizedURL string, parts segment.Parts) (v Vector, err error) {
	if sanitizedURL == "" {
		return nil, &ExtractionError{Err: ErrEmptyURL}
	}
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &ExtractionError{URL: sanitizedURL, Err: fmt.Errorf("internal fault: %v", r)}
		}
	}()
	return b.compute(sanitizedURL, parts), nil
}

func (b *Builder) compute(u string, parts segment.Parts) Vector {
	lower := strings.ToLower(u)
	length := utf8.RuneCountInString(u)

	var digits, specials int
	for _, r := range u {
		if unicode.IsDigit(r) {
			digits++
		}
		if !isASCIIAlnum(r) {
			specials++
		}
	}

	v := make(Vector, Width)
	v[IdxURLLength] = float64(length)
	v[IdxDomainLength] = float64(utf8.RuneCountInString(parts.Domain))
	v[IdxPathLength] = float64(utf8.RuneCountInString(parts.Path))
	v[IdxDots] = float64(strings.Count(u, "."))
	v[IdxHyphens] = float64(strings.Count(u, "-"))
	v[IdxAts] = float64(strings.Count(u, "@"))
	v[IdxQuestionMarks] = float64(strings.Count(u, "?"))
	v[IdxEquals] = float64(strings.Count(u, "="))
	v[IdxSlashes] = float64(strings.Count(u, "/"))
	v[IdxHasLogin] = indicator(strings.Contains(lower, "login"))
	v[IdxHasBank] = indicator(strings.Contains(lower, "bank"))
	v[IdxHasVerify] = indicator(strings.Contains(lower, "verify"))
	v[IdxIPv4Host] = indicator(ipv4Prefix.MatchString(parts.Netloc))
	v[IdxDigitRatio] = ratio(digits, length)
	v[IdxSpecialRatio] = ratio(specials, length)
	v[IdxEntropy] = shannonEntropy(u)
	v[IdxHTTPS] = indicator(strings.EqualFold(parts.Scheme, "https"))
	v[IdxSubdomainLength] = float64(utf8.RuneCountInString(parts.Subdomain))
	v[IdxSuspiciousKeywords] = float64(countContained(lower, suspiciousKeywords))
	v[IdxFreeHosting] = indicator(countContained(lower, freeHosting) > 0)
	v[IdxShortener] = indicator(countContained(lower, shorteners) > 0)
	v[IdxBrandInSubdomain] = indicator(countContained(strings.ToLower(parts.Subdomain), brands) > 0)
	v[IdxTrustedDomain] = indicator(b.trusted.IsTrusted(parts.RegisteredDomain))
	return v
}

func isASCIIAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func countContained(s string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(s, k) {
			n++
		}
	}
	return n
}

// shannonEntropy computes Shannon entropy in bits per character. Terms are
// summed in first-occurrence order so the result is bit-for-bit stable.
func shannonEntropy(s string) float64 {
	counts := make(map[rune]int)
	var order []rune
	total := 0
	for _, r := range s {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
		total++
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	length := float64(total)
	for _, r := range order {
		p := float64(counts[r]) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
