package transform

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	fail     map[string]error
	prefix   string
}

func (f *fakeTranslator) Translate(_ context.Context, text, _, to string) (string, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if current <= max || f.maxSeen.CompareAndSwap(max, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if err, ok := f.fail[text]; ok {
		return "", err
	}
	return f.prefix + text + "/" + to, nil
}

func TestTranslateFieldsTranslatesNonEmptyOnly(t *testing.T) {
	tr := &fakeTranslator{}

	out, err := TranslateFields(context.Background(), tr, map[string]string{
		"title":       "Gold Coin",
		"description": "",
		"meta_title":  "Rare Gold Coin",
	}, "en", "de", testLogger())

	require.NoError(t, err)
	assert.Equal(t, "Gold Coin/de", out["title"])
	assert.Equal(t, "", out["description"])
	assert.Equal(t, "Rare Gold Coin/de", out["meta_title"])

	assert.Len(t, tr.calls, 2, "empty fields must never reach the translator")
	assert.NotContains(t, tr.calls, "")
}

func TestTranslateFieldsMixedEmptyAndTranslatable(t *testing.T) {
	tr := &fakeTranslator{}

	fields := map[string]string{
		"a_title": "hello",
		"b_empty": "",
		"c_body":  "world",
		"d_empty": "",
		"e_meta":  "tag",
		"f_empty": "",
		"g_meta":  "again",
		"h_meta":  "still",
		"i_meta":  "yet",
	}

	out, err := TranslateFields(context.Background(), tr, fields, "en", "ja", testLogger())

	require.NoError(t, err)
	require.Len(t, out, len(fields))
	for key, value := range fields {
		if value == "" {
			assert.Equal(t, "", out[key])
			continue
		}
		assert.Equal(t, value+"/ja", out[key])
	}
	assert.Len(t, tr.calls, 6)
}

func TestTranslateFieldsBoundsConcurrency(t *testing.T) {
	tr := &fakeTranslator{}

	fields := make(map[string]string, 12)
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		fields[key] = "text " + key
	}

	_, err := TranslateFields(context.Background(), tr, fields, "en", "fr", testLogger())

	require.NoError(t, err)
	assert.Len(t, tr.calls, 12)
	assert.LessOrEqual(t, tr.maxSeen.Load(), int32(5))
}

func TestTranslateFieldsPropagatesFailure(t *testing.T) {
	boom := errors.New("translator 500")
	tr := &fakeTranslator{fail: map[string]error{"Gold Coin": boom}}

	_, err := TranslateFields(context.Background(), tr, map[string]string{
		"title": "Gold Coin",
	}, "en", "de", testLogger())

	assert.ErrorIs(t, err, boom)
}

func TestShouldSkipTranslation(t *testing.T) {
	source := map[string]string{
		"title":       "Gold Coins",
		"description": "All our gold coins.",
		"meta_title":  "",
	}

	tests := []struct {
		name     string
		existing map[string]string
		want     bool
	}{
		{
			name: "complete and translated",
			existing: map[string]string{
				"title":       "Goldmünzen",
				"description": "Alle unsere Goldmünzen.",
			},
			want: true,
		},
		{
			name:     "no existing row",
			existing: nil,
			want:     false,
		},
		{
			name: "missing a field the source has",
			existing: map[string]string{
				"title":       "Goldmünzen",
				"description": "",
			},
			want: false,
		},
		{
			name: "identical to source, not yet translated",
			existing: map[string]string{
				"title":       "Gold Coins",
				"description": "All our gold coins.",
			},
			want: false,
		},
		{
			name: "partially translated counts as translated",
			existing: map[string]string{
				"title":       "Goldmünzen",
				"description": "All our gold coins.",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSkipTranslation(tt.existing, source))
		})
	}
}
