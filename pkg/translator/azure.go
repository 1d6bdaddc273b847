package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body size (1MB)
	MaxResponseSize = 1 * 1024 * 1024

	apiVersion = "3.0"
)

// AzureConfig holds Azure Translator credentials and endpoint
type AzureConfig struct {
	Endpoint string
	Key      string
	Region   string
	Timeout  time.Duration
}

// AzureTranslator calls the Azure Translator text API
type AzureTranslator struct {
	cfg    AzureConfig
	client *http.Client
	logger ectologger.Logger
}

// NewAzureTranslator creates a new Azure translator client
func NewAzureTranslator(cfg AzureConfig, logger ectologger.Logger) *AzureTranslator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &AzureTranslator{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type translateRequest struct {
	Text string `json:"Text"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate translates text from one language code to another
func (t *AzureTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "translator.AzureTranslator.Translate")
	defer span.End()

	if text == "" {
		return "", ErrEmptyInput
	}

	start := time.Now()

	body, err := json.Marshal([]translateRequest{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("failed to encode translate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/translate?api-version=%s&from=%s&to=%s",
		t.cfg.Endpoint, apiVersion, url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", t.cfg.Key)
	if t.cfg.Region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", t.cfg.Region)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		metrics.RecordTranslation("error", time.Since(start).Seconds())
		t.logger.WithContext(ctx).WithError(err).Error("Translate request failed")
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		metrics.RecordTranslation("error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to read translate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordTranslation(fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start).Seconds())
		t.logger.WithContext(ctx).WithFields(map[string]any{
			"status": resp.StatusCode,
			"from":   from,
			"to":     to,
		}).Error("Translate request returned non-200")
		return "", fmt.Errorf("translate request returned %d: %s", resp.StatusCode, string(raw))
	}

	var results []translateResponse
	if err := json.Unmarshal(raw, &results); err != nil {
		metrics.RecordTranslation("error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		metrics.RecordTranslation("empty", time.Since(start).Seconds())
		return "", fmt.Errorf("translate response had no translations")
	}

	metrics.RecordTranslation("success", time.Since(start).Seconds())

	return results[0].Translations[0].Text, nil
}
