package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRun_KeepsOrderAndErrors(t *testing.T) {
	boom := errors.New("boom")
	results := Run(context.Background(),
		func(context.Context) (int, error) { time.Sleep(10 * time.Millisecond); return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) (int, error) { return 3, nil },
	)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.Equal(t, 1, results[0].Value)
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, 3, results[2].Value)
}

func TestRun_FailureDoesNotCancelSiblings(t *testing.T) {
	var finished atomic.Int32
	results := Run(context.Background(),
		func(context.Context) (string, error) { return "", errors.New("fast failure") },
		func(ctx context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			finished.Add(1)
			return "slow", nil
		},
	)

	assert.Equal(t, int32(1), finished.Load())
	assert.Equal(t, "slow", results[1].Value)
}

func TestRun_NoQueries(t *testing.T) {
	assert.Empty(t, Run[int](context.Background()))
}

func TestGo_MixedTypes(t *testing.T) {
	var g errgroup.Group
	count := Go(context.Background(), &g, func(context.Context) (int, error) { return 7, nil })
	name := Go(context.Background(), &g, func(context.Context) (string, error) { return "", errors.New("down") })
	require.NoError(t, g.Wait())

	assert.Equal(t, 7, count().Value)
	assert.Error(t, name().Err)
}
