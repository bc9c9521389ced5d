package assessor

import (
	"context"

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/features"
	"github.com/raysh454/phishcatcher/internal/segment"
	"github.com/raysh454/phishcatcher/internal/utils"
)

// Explanation shows what the classifier would see for a URL, without
// running it.
type Explanation struct {
	URL       string                `json:"url"`
	Sanitized string                `json:"sanitized"`
	Parts     segment.Parts         `json:"parts"`
	Trusted   bool                  `json:"trusted"`
	Features  []features.NamedValue `json:"features"`
	Lookalike *allowlist.Lookalike  `json:"lookalike,omitempty"`
}

// Explain sanitizes, segments and builds the vector for raw. Lookalike is
// set when the registered domain is untrusted but within
// LookalikeMaxDistance edits of a trusted one.
func (a *Assessor) Explain(ctx context.Context, raw string) (*Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sanitized := utils.Sanitize(raw)
	parts, err := a.segmenter.Segment(sanitized)
	if err != nil {
		return nil, err
	}
	vec, err := a.builder.Build(sanitized, parts)
	if err != nil {
		return nil, err
	}

	ex := &Explanation{
		URL:       raw,
		Sanitized: sanitized,
		Parts:     parts,
		Trusted:   a.trusted.IsTrusted(parts.RegisteredDomain),
		Features:  vec.Named(),
	}
	if !ex.Trusted && a.cfg.LookalikeMaxDistance > 0 {
		if near, ok := a.trusted.Nearest(parts.RegisteredDomain); ok && near.Distance <= a.cfg.LookalikeMaxDistance {
			ex.Lookalike = &near
		}
	}
	return ex, nil
}
