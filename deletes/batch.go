package deletes

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ChunkError reports a failed chunk. Index is the zero-based position of the
// chunk in issue order.
type ChunkError struct {
	Index int
	Size  int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("batch %d (%d images): %v", e.Index, e.Size, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// InBatches calls fn once per consecutive chunk of at most size ids, in
// order. A failed chunk does not stop later chunks; every failure is returned
// as part of a *multierror.Error. Only cancellation of ctx stops early.
func InBatches[T any](ctx context.Context, ids []T, size int, fn func(ctx context.Context, chunk []T) error) error {
	if size < 1 {
		return fmt.Errorf("invalid batch size: %d", size)
	}

	var result *multierror.Error
	index := 0
	for chunk := range slices.Chunk(ids, size) {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		if err := fn(ctx, chunk); err != nil {
			logrus.Errorln("BATCH:", index, ":", len(chunk), "images:", err)
			result = multierror.Append(result, &ChunkError{Index: index, Size: len(chunk), Err: err})
		}
		index++
	}

	return result.ErrorOrNil()
}
