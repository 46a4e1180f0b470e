package docdb

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

// Client persists answer records to the document database and reads a
// session's prior turns back as chat history.
type Client struct {
	endpoint   string
	apiKey     string
	database   string
	container  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(endpoint, apiKey, database, container string, logger *logrus.Logger) *Client {
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		database:  database,
		container: container,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// HistoryTurn is one prior exchange in a chat session.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Create writes one document. Records are immutable after creation.
func (c *Client) Create(ctx context.Context, document interface{}) error {
	jsonData, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	u := fmt.Sprintf("%s/dbs/%s/colls/%s/docs", c.endpoint, c.database, c.container)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"url":          u,
		"payload_size": len(jsonData),
	}).Debug("Writing document")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create document failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// History returns a session's turns ordered oldest first. A missing or
// unreadable session degrades to empty history.
func (c *Client) History(ctx context.Context, chatID, sessionID string) ([]HistoryTurn, error) {
	u := fmt.Sprintf("%s/dbs/%s/colls/%s/docs?chatId=%s&sessionId=%s",
		c.endpoint, c.database, c.container,
		url.QueryEscape(chatID), url.QueryEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history query failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	var turns []HistoryTurn
	if err := json.Unmarshal(responseBody, &turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return turns, nil
}
