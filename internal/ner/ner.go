// Package ner provides an optional entity-recognition layer backed by an
// NLP sidecar reached over HTTP. If the sidecar is unreachable the client
// logs a warning and reports no spans, so the rest of the classification
// rules still run.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"redactshot/internal/logger"
)

// Span describes a sensitive substring the sidecar found in a text run.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"` // e.g. "PERSON", "DATE", "CARDINAL"
	Text  string `json:"text"`
}

// Client calls the sidecar's /classify endpoint. Safe for concurrent use.
type Client struct {
	url  string
	http *http.Client
	log  logger.Logger
}

// New creates a Client pointing at the given base URL
// (e.g. "http://redact-ner:8001").
func New(baseURL string, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		url: baseURL + "/classify",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []Span `json:"spans"`
}

// Classify sends text to the sidecar and returns sensitive spans. An
// unreachable or misbehaving sidecar yields no spans and no error.
func (c *Client) Classify(text string) ([]Span, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warning("ner", "sidecar unreachable, skipping entity layer", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warning("ner", "unexpected sidecar status", map[string]interface{}{
			"code": resp.StatusCode,
		})
		return nil, nil
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	return result.Spans, nil
}
