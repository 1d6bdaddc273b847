package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestAzureTranslateSuccess(t *testing.T) {
	var gotKey, gotRegion, gotFrom, gotTo string
	var gotBody []translateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotRegion = r.Header.Get("Ocp-Apim-Subscription-Region")
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode([]translateResponse{
			{Translations: []struct {
				Text string `json:"text"`
				To   string `json:"to"`
			}{{Text: "Goldmünze", To: "de"}}},
		})
	}))
	defer srv.Close()

	tr := NewAzureTranslator(AzureConfig{
		Endpoint: srv.URL,
		Key:      "secret",
		Region:   "australiaeast",
	}, testLogger())

	out, err := tr.Translate(context.Background(), "Gold coin", "en", "de")

	require.NoError(t, err)
	assert.Equal(t, "Goldmünze", out)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "australiaeast", gotRegion)
	assert.Equal(t, "en", gotFrom)
	assert.Equal(t, "de", gotTo)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "Gold coin", gotBody[0].Text)
}

func TestAzureTranslateRejectsEmptyInput(t *testing.T) {
	tr := NewAzureTranslator(AzureConfig{Endpoint: "http://localhost:0"}, testLogger())

	_, err := tr.Translate(context.Background(), "", "en", "de")

	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAzureTranslateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewAzureTranslator(AzureConfig{Endpoint: srv.URL, Key: "secret"}, testLogger())

	_, err := tr.Translate(context.Background(), "Gold coin", "en", "de")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAzureTranslateEmptyTranslations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr := NewAzureTranslator(AzureConfig{Endpoint: srv.URL, Key: "secret"}, testLogger())

	_, err := tr.Translate(context.Background(), "Gold coin", "en", "de")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no translations")
}
