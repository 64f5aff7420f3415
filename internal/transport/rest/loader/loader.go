// Package loader provides per-request DataLoaders that batch headword
// lookups for relation targets into single repository calls.
package loader

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// headwordSource resolves entry ids to display headwords. Missing ids are
// absent from the result.
type headwordSource interface {
	Headwords(ctx context.Context, ids []string) (map[string]string, error)
}

// Loaders contains the per-request DataLoaders.
type Loaders struct {
	HeadwordByID *dataloader.Loader[string, string]
}

// NewLoaders creates a new set of DataLoaders. Must be called per request:
// loaders cache results for their whole lifetime.
func NewLoaders(src headwordSource) *Loaders {
	return &Loaders{
		HeadwordByID: dataloader.NewBatchedLoader(
			newHeadwordBatchFn(src),
			dataloader.WithWait[string, string](wait),
			dataloader.WithBatchCapacity[string, string](maxBatch),
		),
	}
}

// Headwords loads several headwords in one batch. The result is in key
// order; an unknown id yields "".
func (l *Loaders) Headwords(ctx context.Context, ids []string) ([]string, error) {
	out, errs := l.HeadwordByID.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func newHeadwordBatchFn(src headwordSource) dataloader.BatchFunc[string, string] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[string] {
		found, err := src.Headwords(ctx, keys)
		if err != nil {
			results := make([]*dataloader.Result[string], len(keys))
			for i := range results {
				results[i] = &dataloader.Result[string]{Error: err}
			}
			return results
		}

		results := make([]*dataloader.Result[string], len(keys))
		for i, key := range keys {
			results[i] = &dataloader.Result[string]{Data: found[key]}
		}
		return results
	}
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type contextKey string

const loadersKey contextKey = "loaders"

// WithLoaders stores Loaders in the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// FromContext retrieves Loaders from the context.
// Panics if loaders are not present (indicates middleware misconfiguration).
func FromContext(ctx context.Context) *Loaders {
	l, ok := ctx.Value(loadersKey).(*Loaders)
	if !ok || l == nil {
		panic("loader: loaders not found in context, is the middleware configured?")
	}
	return l
}

// Middleware instantiates per-request Loaders and stores them in the
// request context.
func Middleware(src headwordSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(src))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
