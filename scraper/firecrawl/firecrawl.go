// Package firecrawl is the scrape gateway backed by the Firecrawl extract API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"realestate-agent/models"
	"realestate-agent/scraper"
	"realestate-agent/services"
	"realestate-agent/utils"
)

const defaultBaseURL = "https://api.firecrawl.dev"

// Client submits extract jobs and waits for their result.
type Client struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration

	limit   int
	timeout time.Duration
	client  *http.Client
	cleaner *services.Cleaner
	logger  *utils.Logger
}

// New constructs a Firecrawl client. timeout bounds a whole fetch, polling
// included; limit is the number of records requested per search.
func New(apiKey string, limit int, timeout time.Duration, cleaner *services.Cleaner, logger *utils.Logger) *Client {
	return &Client{
		APIKey:       apiKey,
		BaseURL:      defaultBaseURL,
		PollInterval: 2 * time.Second,
		limit:        limit,
		timeout:      timeout,
		client:       &http.Client{Timeout: 30 * time.Second},
		cleaner:      cleaner,
		logger:       logger,
	}
}

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type extractData struct {
	Properties []models.RawProperty `json:"properties"`
}

type extractResponse struct {
	Success bool            `json:"success"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// FetchProperties runs one extraction over the city's listing sites. It
// never fails: any upstream problem is logged and yields an empty list.
func (c *Client) FetchProperties(ctx context.Context, req models.SearchRequest) []models.Property {
	if strings.TrimSpace(c.APIKey) == "" {
		c.logger.Warn("[firecrawl] FIRECRAWL_API_KEY is not set; returning no properties")
		return []models.Property{}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Info("[firecrawl] Fetching properties for %s, type: %s, max price: %s crores",
		req.City, req.PropertyType, req.MaxPrice)

	raw, err := c.extract(ctx, req)
	if err != nil {
		c.logger.Error("[firecrawl] Extract failed: %v", err)
		return []models.Property{}
	}

	props := c.cleaner.Clean(raw, req.City)
	c.logger.Info("[firecrawl] Successfully fetched %d properties", len(props))
	return props
}

func (c *Client) extract(ctx context.Context, req models.SearchRequest) ([]models.RawProperty, error) {
	body := extractRequest{
		URLs:   scraper.SourceURLs(req.City),
		Prompt: scraper.Instruction(req, c.limit),
		Schema: scraper.Schema(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/extract", payload)
	if err != nil {
		return nil, err
	}

	for {
		if !resp.Success {
			return nil, fmt.Errorf("extract not successful: %s", resp.Error)
		}
		switch resp.Status {
		case "", "completed":
			if len(resp.Data) > 0 && string(resp.Data) != "null" {
				return decodeData(resp.Data)
			}
			if resp.ID == "" {
				return nil, fmt.Errorf("response carries neither data nor job id")
			}
		case "failed", "cancelled":
			return nil, fmt.Errorf("extract job %s %s: %s", resp.ID, resp.Status, resp.Error)
		}

		c.logger.Debug("[firecrawl] Job %s status %q, polling", resp.ID, resp.Status)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for job %s: %w", resp.ID, ctx.Err())
		case <-time.After(c.PollInterval):
		}

		id := resp.ID
		resp, err = c.do(ctx, http.MethodGet, "/v1/extract/"+id, nil)
		if err != nil {
			return nil, err
		}
		if resp.ID == "" {
			resp.ID = id
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*extractResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("firecrawl http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func decodeData(raw json.RawMessage) ([]models.RawProperty, error) {
	var data extractData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed data: %w", err)
	}
	if data.Properties == nil {
		return []models.RawProperty{}, nil
	}
	return data.Properties, nil
}
