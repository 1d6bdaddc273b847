package transform

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/translator"
)

const (
	// translateConcurrency bounds in-flight translate calls per row.
	translateConcurrency = 5

	// translatePause separates bursts of translate calls to respect the
	// service's rate limits.
	translatePause = 200 * time.Millisecond
)

// ShouldSkipTranslation reports whether an existing translation row is
// already complete: every field that is non-empty in the default-language
// source is non-empty in the existing row, and at least one field differs
// from the source (so it is actually translated, not copied).
func ShouldSkipTranslation(existing, source map[string]string) bool {
	if len(existing) == 0 {
		return false
	}

	differs := false
	for key, sourceValue := range source {
		if sourceValue == "" {
			continue
		}
		if existing[key] == "" {
			return false
		}
		if existing[key] != sourceValue {
			differs = true
		}
	}
	return differs
}

// TranslateFields translates every non-empty field from one language to
// another. Empty fields translate to empty and are never sent to the
// translator, which rejects zero-length inputs. Calls run at most five at a
// time with a 200 ms pause between bursts.
func TranslateFields(ctx context.Context, tr translator.Translator, fields map[string]string, from, to string, logger ectologger.Logger) (map[string]string, error) {
	// Empty fields are settled up front so the workers are the only writers
	// racing on the map.
	out := make(map[string]string, len(fields))
	keys := make([]string, 0, len(fields))
	for key, value := range fields {
		if value == "" {
			out[key] = ""
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(keys); start += translateConcurrency {
		if start > 0 {
			select {
			case <-time.After(translatePause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		end := start + translateConcurrency
		if end > len(keys) {
			end = len(keys)
		}

		var wg sync.WaitGroup
		for _, key := range keys[start:end] {
			value := fields[key]

			wg.Add(1)
			go func(key, value string) {
				defer wg.Done()
				translated, err := tr.Translate(ctx, value, from, to)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
						"field": key,
						"to":    to,
					}).Warn("Translate call failed")
					return
				}
				out[key] = translated
			}(key, value)
		}
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
	}

	return out, nil
}
