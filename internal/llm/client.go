package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrResourceExhausted signals that no backend deployment is usable
// while traffic is excessive. Callers must not retry it; the driver
// converts it into the high-traffic apology message.
var ErrResourceExhausted = errors.New("llm backend pool exhausted")

const (
	// Balancer call types.
	EnvChat      = "conv"
	EnvEmbedding = "emb"

	balancerOKCode = "E0000"
)

type Client struct {
	balancerURL    string
	defaultDep     Deployment
	embeddingModel string
	contextWindow  int
	reservedTokens int
	retry          RetryConfig
	httpClient     *http.Client
	logger         *logrus.Logger
}

func NewClient(balancerURL string, defaultDep Deployment, embeddingModel string, contextWindow, reservedTokens int, logger *logrus.Logger) *Client {
	return &Client{
		balancerURL:    balancerURL,
		defaultDep:     defaultDep,
		embeddingModel: embeddingModel,
		contextWindow:  contextWindow,
		reservedTokens: reservedTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// SetRetryPolicy overrides the default embedding retry policy. tries is
// the total number of attempts including the first one.
func (c *Client) SetRetryPolicy(tries int, delay time.Duration) {
	if tries < 1 {
		tries = 1
	}
	c.retry = RetryConfig{
		MaxRetries: tries - 1,
		BaseDelay:  delay,
		MaxDelay:   delay,
	}
}

// SelectDeployment asks the load balancer for a backend sized to the
// request. A non-success code means the pool is exhausted; a success
// response with missing fields falls back to the default deployment.
func (c *Client) SelectDeployment(ctx context.Context, tokenSize int, env string) (Deployment, error) {
	if c.balancerURL == "" {
		return c.defaultDep, nil
	}

	var response balancerResponse
	err := c.makeRequest(ctx, "POST", c.balancerURL, nil, balancerRequest{TokenSize: tokenSize, Env: env}, &response)
	if err != nil {
		c.logger.WithError(err).Warn("Load balancer unreachable, using default deployment")
		return c.defaultDep, nil
	}

	if response.Code != balancerOKCode {
		c.logger.WithFields(logrus.Fields{
			"code": response.Code,
			"env":  env,
		}).Error("Load balancer reported no usable backend")
		return Deployment{}, ErrResourceExhausted
	}

	r := response.Result
	if r.APIBase == "" || r.APIKey == "" || r.APIVersion == "" || r.APIModel == "" {
		c.logger.WithField("env", env).Warn("Load balancer returned incomplete deployment, using default")
		return c.defaultDep, nil
	}

	return Deployment{
		APIBase:    r.APIBase,
		APIKey:     r.APIKey,
		APIVersion: r.APIVersion,
		Model:      r.APIModel,
	}, nil
}

// Complete runs one chat completion. The document block is truncated to
// the remaining token budget before the call; system prompt and
// question are never cut.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	system := substitute(req.System, req.Variables)
	human := substitute(req.Human, req.Variables)

	budget := c.contextWindow -
		EstimateTokens(system) -
		EstimateTokens(human) -
		EstimateTokens(req.Question) -
		c.reservedTokens
	documents := TruncateTokens(req.Documents, budget)

	human = strings.ReplaceAll(human, "{context}", documents)
	human = strings.ReplaceAll(human, "{question}", req.Question)

	tokenSize := EstimateTokens(system) + EstimateTokens(human)
	dep, err := c.SelectDeployment(ctx, tokenSize, EnvChat)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(dep.APIBase, "/"), dep.Model, dep.APIVersion)

	payload := chatCompletionRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: human},
		},
		Temperature: 0.0,
	}

	var response chatCompletionResponse
	if err := c.makeRequest(ctx, "POST", url, &dep, payload, &response); err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return &CompletionResult{
		Text:             response.Choices[0].Message.Content,
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
	}, nil
}

// Embed vectorizes text. Embeddings gate every retrieval call, so
// transient failures are retried.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := c.retryOperation(ctx, func() error {
		var err error
		result, err = c.embed(ctx, text)
		return err
	})
	return result, err
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	dep, err := c.SelectDeployment(ctx, EstimateTokens(text), EnvEmbedding)
	if err != nil {
		return nil, err
	}
	model := dep.Model
	if c.embeddingModel != "" {
		model = c.embeddingModel
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		strings.TrimRight(dep.APIBase, "/"), model, dep.APIVersion)

	var response embeddingResponse
	if err := c.makeRequest(ctx, "POST", url, &dep, embeddingRequest{Input: text}, &response); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("embedding returned no data")
	}
	return response.Data[0].Embedding, nil
}

func (c *Client) makeRequest(ctx context.Context, method, url string, dep *Deployment, payload interface{}, result interface{}) error {
	var body io.Reader
	var contentLength int

	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
		contentLength = len(jsonData)

		c.logger.WithFields(logrus.Fields{
			"method":       method,
			"url":          url,
			"payload_size": contentLength,
		}).Debug("Request payload info")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if dep != nil {
		req.Header.Set("api-key", dep.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           url,
		"response_size": len(responseBody),
	}).Debug("LLM API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func substitute(template string, vars map[string]string) string {
	for k, v := range vars {
		template = strings.ReplaceAll(template, "{"+k+"}", v)
	}
	return template
}

// EstimateTokens approximates the token count of text. Exact BPE counts
// are model-private; four bytes per token tracks the real tokenizer
// within the margin the reserved-token headroom absorbs.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// TruncateTokens cuts text from the tail down to at most budget tokens.
// The head is kept because documents arrive ranked by relevance.
func TruncateTokens(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	limit := budget * 4
	if len(s) <= limit {
		return s
	}
	// Cut on a rune boundary.
	for limit > 0 && (s[limit]&0xC0) == 0x80 {
		limit--
	}
	return s[:limit]
}
