package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProcessor() *Processor {
	return NewProcessor(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func intRange(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestProcessCountsEveryItemAsSuccess(t *testing.T) {
	tests := []struct {
		name          string
		items         int
		batchSize     int
		parallelLimit int
	}{
		{name: "single batch", items: 10, batchSize: 50, parallelLimit: 1},
		{name: "exact batches", items: 100, batchSize: 25, parallelLimit: 1},
		{name: "remainder batch", items: 103, batchSize: 25, parallelLimit: 1},
		{name: "parallel groups", items: 103, batchSize: 10, parallelLimit: 4},
		{name: "parallel limit above batch count", items: 9, batchSize: 3, parallelLimit: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func(_ context.Context, batch []int, _ int) (BatchResult, error) {
				return BatchResult{Success: len(batch)}, nil
			}

			result, err := Process(context.Background(), testProcessor(), intRange(tt.items), fn, Options{
				BatchSize:     tt.batchSize,
				ParallelLimit: tt.parallelLimit,
				RetryDelay:    time.Millisecond,
				Timeout:       time.Second,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.items, result.Success)
			assert.Equal(t, 0, result.Failed)
			assert.Equal(t, tt.items, result.Total)
			expectedBatches := (tt.items + tt.batchSize - 1) / tt.batchSize
			assert.Equal(t, expectedBatches, result.BatchesProcessed)
		})
	}
}

func TestProcessEmptyInputShortCircuits(t *testing.T) {
	called := false
	fn := func(_ context.Context, _ []int, _ int) (BatchResult, error) {
		called = true
		return BatchResult{}, nil
	}

	result, err := Process(context.Background(), testProcessor(), nil, fn, Options{})

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, Result{}, result)
}

func TestProcessPreservesItemOrderWithinBatches(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int][]int)

	fn := func(_ context.Context, batch []int, idx int) (BatchResult, error) {
		mu.Lock()
		seen[idx] = append([]int(nil), batch...)
		mu.Unlock()
		return BatchResult{Success: len(batch)}, nil
	}

	_, err := Process(context.Background(), testProcessor(), intRange(10), fn, Options{
		BatchSize:     3,
		ParallelLimit: 2,
		RetryDelay:    time.Millisecond,
		Timeout:       time.Second,
	})
	require.NoError(t, err)

	require.Len(t, seen, 4)
	assert.Equal(t, []int{0, 1, 2}, seen[0])
	assert.Equal(t, []int{3, 4, 5}, seen[1])
	assert.Equal(t, []int{6, 7, 8}, seen[2])
	assert.Equal(t, []int{9}, seen[3])
}

func TestProcessRetriesWithLinearBackoffThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	fn := func(_ context.Context, batch []int, _ int) (BatchResult, error) {
		if attempts.Add(1) <= 2 {
			return BatchResult{}, errors.New("transient resource error")
		}
		return BatchResult{Success: len(batch)}, nil
	}

	start := time.Now()
	result, err := Process(context.Background(), testProcessor(), intRange(5), fn, Options{
		BatchSize:     10,
		RetryAttempts: 3,
		RetryDelay:    100 * time.Millisecond,
		Timeout:       time.Second,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 5, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.BatchesProcessed)
	// 100ms after attempt 1, 200ms after attempt 2.
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
}

func TestProcessExhaustedRetriesCountBatchAsFailed(t *testing.T) {
	var onErrBatch, onErrLen int
	var onErr error

	fn := func(_ context.Context, _ []int, _ int) (BatchResult, error) {
		return BatchResult{}, errors.New("boom")
	}

	result, err := Process(context.Background(), testProcessor(), intRange(7), fn, Options{
		BatchSize:     5,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		Timeout:       time.Second,
		OnError: func(err error, batchIndex, batchLen int) {
			onErr = err
			onErrBatch = batchIndex
			onErrLen = batchLen
		},
	})

	require.NoError(t, err, "batch failures must not fail the run")
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 7, result.Failed)
	assert.Equal(t, 7, result.Total)
	assert.Equal(t, 2, result.BatchesProcessed)
	require.Error(t, onErr)
	assert.True(t, errors.Is(onErr, ErrRetriesExhausted))
	assert.Equal(t, 1, onErrBatch)
	assert.Equal(t, 2, onErrLen)
}

func TestProcessTimeoutIsDistinctErrorKind(t *testing.T) {
	var captured error

	fn := func(ctx context.Context, _ []int, _ int) (BatchResult, error) {
		select {
		case <-ctx.Done():
			return BatchResult{}, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return BatchResult{Success: 1}, nil
		}
	}

	result, err := Process(context.Background(), testProcessor(), intRange(1), fn, Options{
		BatchSize:     1,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
		Timeout:       20 * time.Millisecond,
		OnError: func(err error, _, _ int) {
			captured = err
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Error(t, captured)
	assert.Contains(t, captured.Error(), "timed out")
}

func TestProcessPartialBatchFailureIsTallied(t *testing.T) {
	fn := func(_ context.Context, batch []int, idx int) (BatchResult, error) {
		if idx == 0 {
			return BatchResult{Success: len(batch) - 1, Failed: 1}, nil
		}
		return BatchResult{Success: len(batch)}, nil
	}

	result, err := Process(context.Background(), testProcessor(), intRange(10), fn, Options{
		BatchSize:  5,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, 9, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.Total, result.Success+result.Failed)
}

func TestProcessProgressReportsCumulativeTallies(t *testing.T) {
	var mu sync.Mutex
	var percents []int
	var lastSuccess, lastFailed int

	fn := func(_ context.Context, batch []int, _ int) (BatchResult, error) {
		return BatchResult{Success: len(batch)}, nil
	}

	_, err := Process(context.Background(), testProcessor(), intRange(20), fn, Options{
		BatchSize:     5,
		ParallelLimit: 2,
		RetryDelay:    time.Millisecond,
		Timeout:       time.Second,
		OnProgress: func(percent, success, failed int) {
			mu.Lock()
			percents = append(percents, percent)
			lastSuccess, lastFailed = success, failed
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.Len(t, percents, 4)
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 20, lastSuccess)
	assert.Equal(t, 0, lastFailed)
}
