package assessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/phishcatcher/internal/features"
	"github.com/raysh454/phishcatcher/internal/segment"
)

var (
	errNilConfig     = errors.New("assessor: nil config")
	errNilClassifier = errors.New("assessor: nil classifier")
	errNilLabels     = errors.New("assessor: nil label decoder")
)

// ConfigurationError reports skew between the feature builder, the
// classifier and the label decoder. It is fatal: retrying the same URL
// reproduces it.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("classifier configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}

// Error kinds returned by Kind.
const (
	KindParse         = "parse"
	KindExtraction    = "extraction"
	KindConfiguration = "configuration"
	KindCanceled      = "canceled"
	KindInternal      = "internal"
)

// Kind classifies err into one of the Kind* constants, or "" for nil.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		pe *segment.ParseError
		ee *features.ExtractionError
		ce *ConfigurationError
	)
	switch {
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &ee):
		return KindExtraction
	case errors.As(err, &ce):
		return KindConfiguration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
