// Package ocr talks to the text-extraction sidecar that turns stored
// patient documents (PDF scans, photos of lab results) into plain text.
package ocr

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

	"github.com/cuido-app/care-assistant/internal/records"
)

// Config describes how to reach the extraction service.
type Config struct {
	BaseURL  string
	Language string // tesseract language code, e.g. "spa"
	Timeout  time.Duration
}

// Client calls the extraction service over HTTP.
type Client struct {
	baseURL  string
	language string
	http     *http.Client
}

// NewClient validates the configuration and returns a ready-to-use client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("ocr: base URL required")
	}
	language := cfg.Language
	if language == "" {
		language = "spa"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: language,
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type extractRequest struct {
	StoragePath string `json:"storage_path"`
	MimeType    string `json:"mime_type"`
	Language    string `json:"language"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// ExtractText implements assistant.TextExtractor.
func (c *Client) ExtractText(ctx context.Context, doc records.Document) (string, error) {
	if strings.TrimSpace(doc.StoragePath) == "" {
		return "", fmt.Errorf("ocr: document %d has no storage path", doc.ID)
	}

	payload, err := json.Marshal(extractRequest{
		StoragePath: doc.StoragePath,
		MimeType:    doc.MimeType,
		Language:    c.language,
	})
	if err != nil {
		return "", fmt.Errorf("ocr: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ocr: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ocr: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out extractResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("ocr: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr: extraction failed: %s", out.Error)
	}
	return out.Text, nil
}
