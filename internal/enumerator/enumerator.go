// Package enumerator pulls candidate URLs out of documents so they can be
// classified in bulk.
package enumerator

import "context"

// Enumerator lists the URLs found at target.
type Enumerator interface {
	Enumerate(ctx context.Context, target string) ([]string, error)
}
