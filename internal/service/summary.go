package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrSummaryDisabled = errors.New("summary provider disabled")

// Summarizer — единственная точка расширения для внешних AI-фич.
// Провайдер выбирается конфигурацией.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

func NewSummarizer(provider, endpoint, apiKey string, timeout time.Duration) Summarizer {
	switch provider {
	case "http":
		return newHTTPSummarizer(endpoint, apiKey, timeout)
	default:
		return disabledSummarizer{}
	}
}

type disabledSummarizer struct{}

func (disabledSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return "", ErrSummaryDisabled
}

// httpSummarizer проксирует текст во внешний endpoint и возвращает summary
// как есть.
type httpSummarizer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func newHTTPSummarizer(endpoint, apiKey string, timeout time.Duration) *httpSummarizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpSummarizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *httpSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary provider status %d", resp.StatusCode)
	}

	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	return out.Summary, nil
}
