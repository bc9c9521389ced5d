// Package assessor combines the URL pipeline into a verdict: sanitize,
// segment, consult the trusted-domain allowlist, build the feature vector,
// run the classifier and decode its arg-max class.
//
// An Assessor holds only read-only state once constructed, so one instance
// serves any number of concurrent Classify calls.
package assessor

import (
	"context"
	"time"

	"github.com/raysh454/phishcatcher/internal/allowlist"
	"github.com/raysh454/phishcatcher/internal/features"
	"github.com/raysh454/phishcatcher/internal/logging"
	"github.com/raysh454/phishcatcher/internal/metrics"
	"github.com/raysh454/phishcatcher/internal/model"
	"github.com/raysh454/phishcatcher/internal/segment"
	"github.com/raysh454/phishcatcher/internal/utils"
)

// LabelDecoder maps a classifier output index to a class name.
type LabelDecoder interface {
	Decode(i int) (string, error)
	Len() int
}

// Options carries the collaborators of an Assessor. Segmenter, Trusted and
// Metrics are optional.
type Options struct {
	Segmenter  *segment.Segmenter
	Trusted    *allowlist.Set
	Classifier model.Classifier
	Labels     LabelDecoder
	Metrics    *metrics.Recorder
}

// Result is the verdict for one URL.
type Result struct {
	URL              string            `json:"url"`
	Label            Label             `json:"label"`
	Confidence       float64           `json:"confidence"`
	ShortCircuited   bool              `json:"short_circuited"`
	RegisteredDomain string            `json:"registered_domain,omitempty"`
	Probabilities    map[Label]float64 `json:"probabilities,omitempty"`
	Features         features.Vector   `json:"features,omitempty"`
	Version          string            `json:"version,omitempty"`
}

// Assessor classifies URLs.
type Assessor struct {
	cfg        *Config
	segmenter  *segment.Segmenter
	trusted    *allowlist.Set
	builder    *features.Builder
	classifier model.Classifier
	labels     LabelDecoder
	metrics    *metrics.Recorder
	logger     logging.Logger
}

// New constructs an Assessor. The trusted set is shared by the allowlist
// gate and the trusted_domain feature.
func New(cfg *Config, opts Options, logger logging.Logger) (*Assessor, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if opts.Classifier == nil {
		return nil, errNilClassifier
	}
	if opts.Labels == nil {
		return nil, errNilLabels
	}
	if logger == nil {
		logger = logging.Nop()
	}
	seg := opts.Segmenter
	if seg == nil {
		seg = segment.New(nil)
	}

	l := logger.With(logging.Field{Key: "component", Value: "assessor"})
	a := &Assessor{
		cfg:        cfg,
		segmenter:  seg,
		trusted:    opts.Trusted,
		builder:    features.NewBuilder(opts.Trusted),
		classifier: opts.Classifier,
		labels:     opts.Labels,
		metrics:    opts.Metrics,
		logger:     l,
	}

	l.Info("assessor constructed",
		logging.Field{Key: "scoring_version", Value: cfg.ScoringVersion},
		logging.Field{Key: "trusted_domains", Value: opts.Trusted.Len()},
		logging.Field{Key: "suffix_list", Value: seg.SuffixList()},
	)
	return a, nil
}

// Check verifies that the classifier and label decoder agree with the
// feature layout. Callers run it once at startup and refuse to serve on
// error.
func (a *Assessor) Check() error {
	if w := a.classifier.NumFeatures(); w != features.Width {
		return configErrorf("%w: feature builder produces %d values, classifier expects %d",
			model.ErrInputWidth, features.Width, w)
	}
	if n, m := a.classifier.NumClasses(), a.labels.Len(); n != m {
		return configErrorf("classifier has %d classes, label decoder has %d", n, m)
	}
	for i := 0; i < a.labels.Len(); i++ {
		name, err := a.labels.Decode(i)
		if err != nil {
			return &ConfigurationError{Err: err}
		}
		if _, err := ParseLabel(name); err != nil {
			return &ConfigurationError{Err: err}
		}
	}
	return nil
}

// Classify returns the verdict for raw. Errors are *segment.ParseError,
// *features.ExtractionError or *ConfigurationError, or ctx.Err() when ctx
// is already done.
func (a *Assessor) Classify(ctx context.Context, raw string) (*Result, error) {
	start := time.Now()
	res, err := a.classify(ctx, raw)
	if err != nil {
		kind := Kind(err)
		a.metrics.Failed(kind)
		// Parse errors quote the input, so the message is defanged too.
		urlField := logging.Field{Key: "url", Value: utils.Defang(raw)}
		errField := logging.Field{Key: "error", Value: utils.Defang(err.Error())}
		if kind == KindConfiguration {
			a.logger.Error("classification failed", urlField, errField)
		} else {
			a.logger.Debug("classification rejected", urlField, logging.Field{Key: "kind", Value: kind}, errField)
		}
		return nil, err
	}
	a.metrics.Classified(string(res.Label), res.ShortCircuited, time.Since(start))
	a.logger.Info("classified",
		logging.Field{Key: "url", Value: utils.Defang(raw)},
		logging.Field{Key: "label", Value: res.Label},
		logging.Field{Key: "confidence", Value: res.Confidence},
		logging.Field{Key: "short_circuited", Value: res.ShortCircuited},
	)
	return res, nil
}

func (a *Assessor) classify(ctx context.Context, raw string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sanitized := utils.Sanitize(raw)
	parts, err := a.segmenter.Segment(sanitized)
	if err != nil {
		return nil, err
	}

	if a.trusted.IsTrusted(parts.RegisteredDomain) {
		return &Result{
			URL:              raw,
			Label:            Benign,
			Confidence:       1.0,
			ShortCircuited:   true,
			RegisteredDomain: parts.RegisteredDomain,
			Version:          a.cfg.ScoringVersion,
		}, nil
	}

	vec, err := a.builder.Build(sanitized, parts)
	if err != nil {
		return nil, err
	}
	if a.cfg.LogFeatures {
		a.logger.Debug("features", logging.Field{Key: "url", Value: utils.Defang(raw)}, logging.Field{Key: "vector", Value: []float64(vec)})
	}

	if want := a.classifier.NumFeatures(); len(vec) != want {
		return nil, configErrorf("%w: feature vector has %d values, classifier expects %d",
			model.ErrInputWidth, len(vec), want)
	}

	proba, err := a.classifier.PredictProba(vec)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if len(proba) == 0 || len(proba) != a.labels.Len() {
		return nil, configErrorf("classifier returned %d probabilities, label decoder has %d classes",
			len(proba), a.labels.Len())
	}

	best := argmax(proba)
	label, err := a.decode(best)
	if err != nil {
		return nil, err
	}

	dist := make(map[Label]float64, len(proba))
	for i, p := range proba {
		l, err := a.decode(i)
		if err != nil {
			return nil, err
		}
		dist[l] += p
	}

	return &Result{
		URL:              raw,
		Label:            label,
		Confidence:       proba[best],
		RegisteredDomain: parts.RegisteredDomain,
		Probabilities:    dist,
		Features:         vec,
		Version:          a.cfg.ScoringVersion,
	}, nil
}

func (a *Assessor) decode(i int) (Label, error) {
	name, err := a.labels.Decode(i)
	if err != nil {
		return "", &ConfigurationError{Err: err}
	}
	l, err := ParseLabel(name)
	if err != nil {
		return "", &ConfigurationError{Err: err}
	}
	return l, nil
}

// argmax returns the index of the largest value; ties go to the lowest
// index.
func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

// Close releases resources (currently a no-op) and logs lifecycle.
func (a *Assessor) Close() error {
	if a == nil || a.logger == nil {
		return nil
	}
	a.logger.Info("assessor closed")
	return nil
}
