// Package batch provides the generic batch executor that drives every
// pipeline step: fixed-size batching, group-wise bounded parallelism,
// per-batch retries and per-attempt timeouts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
)

var (
	// ErrBatchTimeout is returned when a batch attempt exceeds its wall-clock budget.
	ErrBatchTimeout = errors.New("batch attempt timed out")

	// ErrRetriesExhausted is returned when every attempt for a batch failed.
	ErrRetriesExhausted = errors.New("batch retries exhausted")
)

const (
	DefaultBatchSize     = 50
	DefaultParallelLimit = 1
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultTimeout       = 2 * time.Minute
)

// BatchResult is what a processor function reports for one batch.
type BatchResult struct {
	Success int
	Failed  int
}

// Func processes one batch of items. Items inside the batch are handled in
// input order; batches themselves may complete out of submission order.
type Func[T any] func(ctx context.Context, batch []T, batchIndex int) (BatchResult, error)

// Options configures a Process run.
type Options struct {
	BatchSize     int
	ParallelLimit int
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration

	// OnProgress fires after each batch reaches a terminal state with an
	// integer percentage and cumulative tallies.
	OnProgress func(percent int, success int, failed int)

	// OnError fires when a batch exhausts its retries. Processing continues.
	OnError func(err error, batchIndex int, batchLen int)
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ParallelLimit <= 0 {
		o.ParallelLimit = DefaultParallelLimit
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = DefaultRetryAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Result is the aggregate outcome of a Process run. Success + Failed always
// equals Total.
type Result struct {
	Success          int
	Failed           int
	Total            int
	BatchesProcessed int
}

// Processor drives batches of work with bounded parallelism.
type Processor struct {
	logger ectologger.Logger
}

func NewProcessor(logger ectologger.Logger) *Processor {
	return &Processor{logger: logger}
}

// Process partitions items into contiguous batches, runs them in admission
// groups of ParallelLimit and aggregates the tallies. Batch failures are
// non-fatal to the run; the only returned errors are context cancellation.
func Process[T any](ctx context.Context, p *Processor, items []T, fn Func[T], opts Options) (Result, error) {
	result := Result{Total: len(items)}
	if len(items) == 0 {
		return result, nil
	}
	opts = opts.withDefaults()

	batches := partition(items, opts.BatchSize)
	totalBatches := len(batches)

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"items":          len(items),
		"batches":        totalBatches,
		"batch_size":     opts.BatchSize,
		"parallel_limit": opts.ParallelLimit,
	}).Info("Starting batch processing")

	var mu sync.Mutex
	done := 0

	for group := 0; group < totalBatches; group += opts.ParallelLimit {
		if err := ctx.Err(); err != nil {
			// Remaining items count as failed so Success+Failed == Total holds.
			mu.Lock()
			for i := group; i < totalBatches; i++ {
				result.Failed += len(batches[i])
			}
			mu.Unlock()
			return result, err
		}

		end := group + opts.ParallelLimit
		if end > totalBatches {
			end = totalBatches
		}

		var wg sync.WaitGroup
		for idx := group; idx < end; idx++ {
			wg.Add(1)
			go func(batchIndex int, items []T) {
				defer wg.Done()
				br, err := runBatch(ctx, p, items, batchIndex, fn, opts)

				mu.Lock()
				defer mu.Unlock()
				done++
				result.BatchesProcessed++
				if err != nil {
					result.Failed += len(items)
					metrics.RecordBatch("failed")
					if opts.OnError != nil {
						opts.OnError(err, batchIndex, len(items))
					}
				} else {
					result.Success += br.Success
					result.Failed += br.Failed
					metrics.RecordBatch("success")
				}
				if opts.OnProgress != nil {
					opts.OnProgress(done*100/totalBatches, result.Success, result.Failed)
				}
			}(idx, batches[idx])
		}
		wg.Wait()
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"success": result.Success,
		"failed":  result.Failed,
		"batches": result.BatchesProcessed,
	}).Info("Batch processing complete")

	return result, nil
}

// runBatch attempts one batch until it succeeds, its retries exhaust or an
// attempt times out on the final try. Delay between attempt k and k+1 is
// RetryDelay * k.
func runBatch[T any](ctx context.Context, p *Processor, items []T, batchIndex int, fn Func[T], opts Options) (BatchResult, error) {
	var lastErr error

	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		br, err := runAttempt(ctx, items, batchIndex, fn, opts.Timeout)
		if err == nil {
			return br, nil
		}
		lastErr = err

		if attempt < opts.RetryAttempts {
			metrics.BatchRetries.Inc()
			delay := opts.RetryDelay * time.Duration(attempt)
			p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"batch":   batchIndex,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Batch attempt failed, backing off")

			select {
			case <-ctx.Done():
				return BatchResult{}, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	p.logger.WithContext(ctx).WithError(lastErr).WithField("batch", batchIndex).Error("Batch failed after all retries")
	return BatchResult{}, fmt.Errorf("%w: batch %d: %v", ErrRetriesExhausted, batchIndex, lastErr)
}

// attempt races fn against the wall-clock budget. A timeout is reported as a
// distinct error kind carrying the elapsed budget.
func runAttempt[T any](ctx context.Context, items []T, batchIndex int, fn Func[T], timeout time.Duration) (BatchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		br  BatchResult
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		br, err := fn(attemptCtx, items, batchIndex)
		ch <- outcome{br: br, err: err}
	}()

	select {
	case out := <-ch:
		return out.br, out.err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return BatchResult{}, fmt.Errorf("%w after %s (batch %d)", ErrBatchTimeout, timeout, batchIndex)
		}
		return BatchResult{}, attemptCtx.Err()
	}
}

func partition[T any](items []T, size int) [][]T {
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
