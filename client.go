package htmlpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to the HTML to PDF API on behalf of one API token.
//
// A Client holds no mutable state besides its transport and is safe for
// concurrent use as long as the transport is.
type Client struct {
	apiToken  string
	baseURL   string
	http      Doer
	userAgent string
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New returns a Client that authenticates with apiToken.
// It performs no network I/O.
func New(apiToken string, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return &Client{
		apiToken:  apiToken,
		baseURL:   strings.TrimRight(cfg.baseURL, "/"),
		http:      cfg.doer(),
		userAgent: cfg.userAgent,
		logger:    cfg.logger,
		tracer:    cfg.tracer(),
	}
}

// GenerateFromHTML submits a local HTML file for conversion.
//
// cssPath is optional; pass "" to send no stylesheet. Entries of images
// that lack a name or path, or whose file cannot be read, are skipped
// without failing the call.
func (c *Client) GenerateFromHTML(ctx context.Context, htmlPath, cssPath string, images []Image) (*Document, error) {
	req, err := c.buildHTMLRequest(htmlPath, cssPath, images)
	if err != nil {
		return nil, err
	}
	return c.generate(ctx, req)
}

// GenerateFromURL submits the page at rawURL for conversion.
func (c *Client) GenerateFromURL(ctx context.Context, rawURL string) (*Document, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	return c.generate(ctx, &GenerateFromURLRequest{URL: rawURL})
}

// GetPDF fetches the current state of the generation job with the given id.
func (c *Client) GetPDF(ctx context.Context, id int) (*Document, error) {
	if id < 1 {
		return nil, invalidInput("Invalid PDF ID: %d", id)
	}

	ctx, span := c.tracer.Start(ctx, "htmlpdf.get_pdf",
		trace.WithAttributes(attribute.Int("htmlpdf.pdf_id", id)))
	defer span.End()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/pdfs/"+strconv.Itoa(id), nil, &envelope); err != nil {
		return nil, recordError(span, err)
	}
	if isAbsent(envelope.Data) {
		return nil, recordError(span, invalidInput("Invalid API response: missing data"))
	}

	doc, err := newDocument(envelope.Data, c)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.String("htmlpdf.status", string(doc.status)))
	return doc, nil
}

// DownloadPDF fetches downloadURL with the client's credentials and returns
// the response body unmodified.
func (c *Client) DownloadPDF(ctx context.Context, downloadURL string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "htmlpdf.download")
	defer span.End()

	data, err := c.do(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, recordError(span, err)
	}

	span.SetAttributes(attribute.Int("htmlpdf.file_size", len(data)))
	return data, nil
}

// generate posts a generation request and decodes the job it creates.
func (c *Client) generate(ctx context.Context, payload any) (*Document, error) {
	ctx, span := c.tracer.Start(ctx, "htmlpdf.generate")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("htmlpdf: encoding request: %w", err))
	}

	var envelope struct {
		PDF json.RawMessage `json:"pdf"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/pdfs/generate", body, &envelope); err != nil {
		return nil, recordError(span, err)
	}
	if isAbsent(envelope.PDF) {
		return nil, recordError(span, invalidInput("Invalid API response: missing pdf data"))
	}

	doc, err := newDocument(envelope.PDF, c)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(
		attribute.Int("htmlpdf.pdf_id", doc.id),
		attribute.String("htmlpdf.status", string(doc.status)),
	)
	return doc, nil
}

// doJSON performs a request and decodes the JSON response body into v.
func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, v any) error {
	data, err := c.do(ctx, method, url, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalidInput("Invalid API response: %v", err)
	}
	return nil
}

// do sends one authenticated request and returns the body of a 2xx
// response. Transport failures come back as *TransportError and other
// statuses as *StatusError.
func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, invalidInput("Invalid request URL %q: %v", url, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "sending request", "method", method, "url", url, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method, URL: url, Err: err}
	}

	c.logger.DebugContext(ctx, "received response",
		"method", method, "url", url, "request_id", requestID,
		"status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: data}
	}
	return data, nil
}

// isAbsent reports whether a JSON member was missing or null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
