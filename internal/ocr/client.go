// Package ocr calls the external OCR/text-extraction service and
// normalizes its heterogeneous success and error shapes into a uniform
// result type.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds one extraction call. A timeout is treated as
// ServiceUnavailable so the coordinator can retry it.
const DefaultTimeout = 60 * time.Second

// Extraction is the normalized success result of one extraction call.
type Extraction struct {
	Text      string
	PageCount int
}

// TextExtractor is the contract the ingestion coordinator depends on.
// Implementations: Client (remote OCR service) and localtext.Extractor.
type TextExtractor interface {
	Extract(ctx context.Context, documentURL string) (*Extraction, error)
}

// Options configures the OCR client.
type Options struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client is an HTTP adapter for the extraction service. Construct one at
// process start and reuse it across requests.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates an OCR client from options. Endpoint is required.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("ocr: endpoint is required")
	}
	if opts.Model == "" {
		opts.Model = "mistral-ocr-latest"
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// extractRequest is the wire shape of one extraction call.
type extractRequest struct {
	Model    string          `json:"model"`
	Document extractDocument `json:"document"`
}

type extractDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// extractResponse is the service's success shape. Pages may carry their
// content under either "text" or "markdown" depending on service version.
type extractResponse struct {
	Pages []extractPage `json:"pages"`
}

type extractPage struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

func (p extractPage) content() string {
	if p.Text != "" {
		return p.Text
	}
	return p.Markdown
}

// Extract invokes the extraction service for a fetchable document URL.
// Failures are classified into ServiceUnavailableError, InvalidInputError
// or ErrEmptyResult; multi-page output is concatenated in page order with
// a blank-line separator.
func (c *Client) Extract(ctx context.Context, documentURL string) (*Extraction, error) {
	body, err := json.Marshal(extractRequest{
		Model: c.model,
		Document: extractDocument{
			Type:        "document_url",
			DocumentURL: documentURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ocr: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceUnavailableError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceUnavailableError{Message: "failed to read response", Cause: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &ServiceUnavailableError{Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &InvalidInputError{Message: fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, truncate(respBody, 200))}
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// A 2xx with an undecodable body is a service fault, not a bad
		// document, so it stays retryable.
		return nil, &ServiceUnavailableError{Message: "malformed response body", Cause: err}
	}

	return normalize(parsed)
}

// normalize joins page content deterministically in page order. A response
// with zero usable pages is ErrEmptyResult, never a silent empty string.
func normalize(parsed extractResponse) (*Extraction, error) {
	var pages []string
	for _, page := range parsed.Pages {
		content := strings.TrimSpace(page.content())
		if content != "" {
			pages = append(pages, content)
		}
	}
	if len(pages) == 0 {
		return nil, ErrEmptyResult
	}
	return &Extraction{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: len(pages),
	}, nil
}

// truncate caps b at n bytes for error messages, backing up to a rune
// boundary so a multi-byte character is never cut in half.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
