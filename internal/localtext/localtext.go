// Package localtext extracts document text in-process, without the remote
// OCR service. It handles plain text, PDF, DOCX and HTML and satisfies the
// same contract as the remote adapter, so the coordinator does not care
// which one it drives. Used in local-extraction mode and offline
// development.
package localtext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-ingest/internal/ocr"
)

// DefaultTimeout bounds the document download.
const DefaultTimeout = 30 * time.Second

const (
	mimePlain = "text/plain"
	mimeHTML  = "text/html"
	mimePDF   = "application/pdf"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor downloads a document by URL and extracts its text locally.
type Extractor struct {
	httpClient *http.Client
}

// NewExtractor creates a local extractor. A zero timeout uses the default.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{httpClient: &http.Client{Timeout: timeout}}
}

// Extract fetches the document and converts it to text based on its
// content type. Failures are classified with the same taxonomy as the
// remote adapter: download problems are retryable, unsupported or
// unreadable documents are not.
func (e *Extractor) Extract(ctx context.Context, documentURL string) (*ocr.Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("invalid document URL: %v", err)}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &ocr.ServiceUnavailableError{Message: "document download failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return nil, &ocr.ServiceUnavailableError{Message: fmt.Sprintf("document store HTTP status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("document store HTTP status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ocr.ServiceUnavailableError{Message: "failed to read document body", Cause: err}
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	return FromBytes(mediaType, data)
}

// FromBytes extracts text from raw document bytes based on media type.
func FromBytes(mediaType string, data []byte) (*ocr.Extraction, error) {
	var pages []string
	var err error

	switch mediaType {
	case mimePlain:
		pages = []string{string(data)}
	case mimeHTML:
		pages, err = htmlPages(data)
	case mimePDF:
		pages, err = pdfPages(data)
	case mimeDOCX:
		pages, err = docxPages(data)
	default:
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("unsupported content type: %s", mediaType)}
	}
	if err != nil {
		return nil, err
	}

	return normalize(pages)
}

// normalize mirrors the remote adapter: drop blank pages, join in order
// with a blank line, and report zero usable pages as an empty result.
func normalize(pages []string) (*ocr.Extraction, error) {
	var usable []string
	for _, page := range pages {
		if trimmed := strings.TrimSpace(page); trimmed != "" {
			usable = append(usable, trimmed)
		}
	}
	if len(usable) == 0 {
		return nil, ocr.ErrEmptyResult
	}
	return &ocr.Extraction{
		Text:      strings.Join(usable, "\n\n"),
		PageCount: len(usable),
	}, nil
}

func pdfPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("failed to read PDF: %v", err)}
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func docxPages(data []byte) ([]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("failed to parse DOCX: %v", err)}
	}
	defer func() { _ = doc.Close() }()

	return []string{doc.Editable().GetContent()}, nil
}

func htmlPages(data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ocr.InvalidInputError{Message: fmt.Sprintf("failed to parse HTML: %v", err)}
	}

	doc.Find("nav, footer, header, script, style, noscript").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		return []string{cleanWhitespace(doc.Text())}, nil
	}
	return []string{cleanWhitespace(body.Text())}, nil
}

// cleanWhitespace trims each line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
