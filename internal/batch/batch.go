// Package batch classifies many URLs on a bounded pool of goroutines.
package batch

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/phishcatcher/internal/assessor"
)

// Classifier is the part of *assessor.Assessor a batch needs.
type Classifier interface {
	Classify(ctx context.Context, raw string) (*assessor.Result, error)
}

// Item is the outcome for urls[Index]. Exactly one of Result and Err is set.
type Item struct {
	Index  int              `json:"index"`
	URL    string           `json:"url"`
	Result *assessor.Result `json:"result,omitempty"`
	Err    error            `json:"-"`
}

// ErrorKind returns assessor.Kind(Err), or "" when the item succeeded.
func (it Item) ErrorKind() string {
	if it.Err == nil {
		return ""
	}
	return assessor.Kind(it.Err)
}

// Run classifies urls with at most workers concurrent calls (NumCPU when
// workers <= 0) and returns one Item per URL in input order.
//
// Parse and extraction errors stay on their item. A *ConfigurationError
// cancels the remaining work and is returned, as is ctx.Err() when the
// caller cancels; unscheduled items then carry the cancellation error.
func Run(ctx context.Context, c Classifier, urls []string, workers int) ([]Item, error) {
	return Stream(ctx, c, urls, workers, nil)
}

// Stream is Run with a callback invoked once per classified item as it
// completes. onItem runs on worker goroutines and must be safe for
// concurrent use.
func Stream(ctx context.Context, c Classifier, urls []string, workers int, onItem func(Item)) ([]Item, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make([]Item, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, raw := range urls {
		items[i] = Item{Index: i, URL: raw}
		if err := gCtx.Err(); err != nil {
			items[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := c.Classify(gCtx, raw)
			if err != nil {
				items[i].Err = err
			} else {
				items[i].Result = res
			}
			if onItem != nil {
				onItem(items[i])
			}
			var ce *assessor.ConfigurationError
			if errors.As(err, &ce) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	if err := ctx.Err(); err != nil {
		return items, err
	}
	return items, nil
}

// Summary counts verdicts and failures in a batch.
type Summary struct {
	Total          int                    `json:"total"`
	Labels         map[assessor.Label]int `json:"labels"`
	ShortCircuited int                    `json:"short_circuited"`
	Failed         map[string]int         `json:"failed,omitempty"`
}

// Summarize tallies items.
func Summarize(items []Item) Summary {
	s := Summary{
		Total:  len(items),
		Labels: make(map[assessor.Label]int),
		Failed: make(map[string]int),
	}
	for _, it := range items {
		if it.Err != nil {
			s.Failed[it.ErrorKind()]++
			continue
		}
		s.Labels[it.Result.Label]++
		if it.Result.ShortCircuited {
			s.ShortCircuited++
		}
	}
	return s
}
