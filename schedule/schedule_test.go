package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, spec := range []string{"0 3 * * *", "*/15 * * * 1-5", "@daily", "@every 6h"} {
		_, err := Parse(spec)
		assert.NoError(t, err, spec)
	}

	for _, spec := range []string{"", "every day", "0 3 * *", "61 * * * *"} {
		_, err := Parse(spec)
		assert.Error(t, err, spec)
	}
}

func TestRunInvokesJobUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "@every 1s", func(jobCtx context.Context) {
			runs.Add(1)
			cancel()
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.Equal(t, int32(1), runs.Load())
}

func TestRunRejectsInvalidSpec(t *testing.T) {
	err := Run(context.Background(), "not a schedule", func(context.Context) {})
	assert.Error(t, err)
}
