package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/models"
)

// VectorFilterModePre applies the filter before vector similarity.
const VectorFilterModePre = "preFilter"

// Client is the HTTP client for the vector/keyword search service.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(endpoint, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Request is one hybrid keyword+vector query.
type Request struct {
	Index        string
	SearchText   string
	Vector       []float32
	KNearest     int
	Filter       Expr
	SearchFields []string
	Top          int
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchPayload struct {
	Search           string        `json:"search,omitempty"`
	SearchFields     string        `json:"searchFields,omitempty"`
	Filter           string        `json:"filter,omitempty"`
	VectorQueries    []vectorQuery `json:"vectorQueries,omitempty"`
	VectorFilterMode string        `json:"vectorFilterMode,omitempty"`
	Top              int           `json:"top,omitempty"`
}

type searchHit struct {
	Score        float64 `json:"@search.score"`
	Type         string  `json:"type"`
	ISOCode      string  `json:"iso_cd"`
	LanguageCode string  `json:"language_cd"`
	ProductGroup string  `json:"prod_g_cd"`
	ProductCode  string  `json:"prod_cd"`
	ModelCode    string  `json:"model_cd"`
	DataID       string  `json:"data_id"`
	MappingKey   string  `json:"mapping_key"`
	ChunkNum     string  `json:"chunk_num"`
	FilePath     string  `json:"file_path"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Pages        string  `json:"pages"`
}

type searchResponse struct {
	Value []searchHit `json:"value"`
}

// Search runs one query and returns scored documents in service order.
func (c *Client) Search(ctx context.Context, req Request) ([]models.Document, error) {
	payload := searchPayload{
		Search:       req.SearchText,
		SearchFields: strings.Join(req.SearchFields, ","),
		Filter:       Render(req.Filter),
		Top:          req.Top,
	}
	if len(req.Vector) > 0 {
		payload.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: req.Vector,
			K:      req.KNearest,
			Fields: "content_vector",
		}}
		payload.VectorFilterMode = VectorFilterModePre
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	u := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=2023-11-01", c.endpoint, req.Index)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"index":  req.Index,
		"filter": payload.Filter,
		"top":    req.Top,
	}).Debug("Making search request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	var response searchResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	docs := make([]models.Document, 0, len(response.Value))
	for _, h := range response.Value {
		docs = append(docs, models.Document{
			Type:         h.Type,
			ISOCode:      h.ISOCode,
			LanguageCode: h.LanguageCode,
			ProductGroup: h.ProductGroup,
			ProductCode:  h.ProductCode,
			ModelCode:    h.ModelCode,
			DataID:       h.DataID,
			MappingKey:   h.MappingKey,
			ChunkNum:     h.ChunkNum,
			FilePath:     h.FilePath,
			Title:        h.Title,
			URL:          h.URL,
			Pages:        h.Pages,
			Score:        h.Score,
		})
	}
	return docs, nil
}
