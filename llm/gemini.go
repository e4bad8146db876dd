// Package llm holds the language-model clients used by the analysis agents.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Model generates a completion for a single prompt.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the Gemini generateContent REST endpoint.
type Gemini struct {
	APIKey  string
	Model   string
	BaseURL string
	client  *http.Client
}

// NewGemini constructs a Gemini client for the named model.
func NewGemini(apiKey, model string, timeout time.Duration) *Gemini {
	return NewGeminiWithClient(apiKey, model, &http.Client{Timeout: timeout})
}

// NewGeminiWithClient constructs a Gemini client using the supplied HTTP client.
func NewGeminiWithClient(apiKey, model string, client *http.Client) *Gemini {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{APIKey: apiKey, Model: model, BaseURL: defaultGeminiBaseURL, client: client}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(g.APIKey) == "" {
		return "", errors.New("gemini: API key is missing")
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(g.BaseURL, "/"), url.PathEscape(g.Model), url.QueryEscape(g.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini API error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("gemini: response has no candidates")
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response (finish reason %q)", out.Candidates[0].FinishReason)
	}
	return text, nil
}
