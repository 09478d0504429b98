package registry

import (
	"context"
	"iter"
)

// PageFunc fetches the page starting at token. An empty token requests the
// first page; an empty next token marks the last page.
type PageFunc[T any] func(ctx context.Context, token string) (items []T, next string, err error)

// Pages is a lazy sequence of pages. It holds no cursor, so every call to All
// starts again from the first page.
type Pages[T any] struct {
	fetch PageFunc[T]
}

func NewPages[T any](fetch PageFunc[T]) Pages[T] {
	return Pages[T]{fetch: fetch}
}

// All yields pages until the continuation token runs out. A fetch error is
// yielded once and ends the sequence.
func (p Pages[T]) All(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		token := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			items, next, err := p.fetch(ctx, token)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(items, nil) {
				return
			}

			if next == "" {
				return
			}
			token = next
		}
	}
}

// Collect flattens every page into a single slice.
func (p Pages[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for page, err := range p.All(ctx) {
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}
