package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client wraps the detect/translate endpoints of the translation
// service. Both operations degrade rather than fail: pipeline callers
// treat a broken translator as a no-op passthrough.
type Client struct {
	endpoint   string
	apiKey     string
	region     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(endpoint, apiKey, region string, logger *logrus.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		region:   region,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type detectResult struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

type translation struct {
	Text string `json:"text"`
}

type translateResult struct {
	Translations []translation `json:"translations"`
}

// Detect returns the detected language code and a confidence score.
func (c *Client) Detect(ctx context.Context, text string) (string, float64, error) {
	var results []detectResult
	err := c.makeRequest(ctx, "/detect?api-version=3.0", text, &results)
	if err != nil {
		return "", 0, err
	}
	if len(results) == 0 {
		return "", 0, fmt.Errorf("detect returned no results")
	}
	return results[0].Language, results[0].Score, nil
}

// Translate converts text into the target language. from is optional;
// when empty the service detects the source itself. Target code "no"
// is normalized to "nb", which is what the service actually speaks.
func (c *Client) Translate(ctx context.Context, text, to, from string) (string, error) {
	if strings.EqualFold(to, "no") {
		to = "nb"
	}

	path := "/translate?api-version=3.0&to=" + url.QueryEscape(strings.ToLower(to))
	if from != "" {
		path += "&from=" + url.QueryEscape(strings.ToLower(from))
	}

	var results []translateResult
	if err := c.makeRequest(ctx, path, text, &results); err != nil {
		return "", err
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", fmt.Errorf("translate returned no results")
	}
	return results[0].Translations[0].Text, nil
}

// TranslateOrPassthrough translates and falls back to the original text
// when the service misbehaves.
func (c *Client) TranslateOrPassthrough(ctx context.Context, text, to, from string) string {
	translated, err := c.Translate(ctx, text, to, from)
	if err != nil {
		c.logger.WithError(err).WithField("to", to).Warn("Translation failed, passing text through")
		return text
	}
	return translated
}

func (c *Client) makeRequest(ctx context.Context, path, text string, result interface{}) error {
	payload := []map[string]string{{"text": text}}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	if c.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClientTraceId", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
