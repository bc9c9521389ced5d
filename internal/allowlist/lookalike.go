package allowlist

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Lookalike is the trusted domain closest to a candidate, by character edits.
type Lookalike struct {
	Trusted  string `json:"trusted"`
	Distance int    `json:"distance"`
}

// Nearest finds the trusted domain with the smallest Levenshtein distance to
// domain. ok is false for an empty set, an empty domain, or an exact member
// (a member is not a lookalike of itself). Ties go to the alphabetically
// first domain.
func (s *Set) Nearest(domain string) (Lookalike, bool) {
	d := Normalize(domain)
	if d == "" || s.Len() == 0 || s.IsTrusted(d) {
		return Lookalike{}, false
	}

	dmp := diffmatchpatch.New()
	best := Lookalike{Distance: -1}
	for _, trusted := range s.Domains() {
		dist := dmp.DiffLevenshtein(dmp.DiffMain(trusted, d, false))
		if best.Distance < 0 || dist < best.Distance {
			best = Lookalike{Trusted: trusted, Distance: dist}
		}
	}
	return best, true
}
