package docstore

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

	"github.com/sirupsen/logrus"
)

// Client talks to the blob-style document store. Paths encode
// {locale}/{language}/{type}/{product_group}/{product_code}/.../{id}.
type Client struct {
	endpoint   string
	apiKey     string
	container  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(endpoint, apiKey, container string, logger *logrus.Logger) *Client {
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		container: container,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Get reads one object's raw bytes.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, "GET", c.objectURL(path), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get %s failed with status %d: %s", path, resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// GetText reads one object as text, degrading to "" on failure. Body
// loads during retrieval must never abort the pipeline.
func (c *Client) GetText(ctx context.Context, path string) string {
	data, err := c.Get(ctx, path)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Document body load failed")
		return ""
	}
	return string(data)
}

// Put writes an object, optionally overwriting an existing one.
func (c *Client) Put(ctx context.Context, path string, content []byte, overwrite bool) error {
	u := c.objectURL(path)
	if overwrite {
		u += "?overwrite=true"
	}
	resp, err := c.do(ctx, "PUT", u, bytes.NewReader(content), "application/octet-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("put %s failed with status %d: %s", path, resp.StatusCode, string(body))
	}
	return nil
}

// List returns the object paths under a prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	u := fmt.Sprintf("%s/%s?list=true&prefix=%s", c.endpoint, c.container, url.QueryEscape(prefix))
	resp, err := c.do(ctx, "GET", u, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list %s failed with status %d: %s", prefix, resp.StatusCode, string(body))
	}

	var paths []string
	if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}
	return paths, nil
}

// Delete removes one object.
func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, "DELETE", c.objectURL(path), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete %s failed with status %d: %s", path, resp.StatusCode, string(body))
	}
	return nil
}

// SASURL returns a time-limited public link for one object. Manual
// citations use these so the client can deep-link into PDF pages.
func (c *Client) SASURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	u := fmt.Sprintf("%s?sas=true&expiry=%d", c.objectURL(path), int(expiry.Seconds()))
	resp, err := c.do(ctx, "GET", u, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sas %s failed with status %d: %s", path, resp.StatusCode, string(body))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to unmarshal sas response: %w", err)
	}
	return result.URL, nil
}

func (c *Client) objectURL(path string) string {
	return c.endpoint + "/" + c.container + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    u,
	}).Debug("Making document store request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
