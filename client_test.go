package htmlpdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type recordedRequest struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	RequestID   string
	Body        []byte
}

// fakeAPI is an httptest server that records every request it receives.
type fakeAPI struct {
	srv *httptest.Server

	mu   sync.Mutex
	reqs []recordedRequest
}

func newFakeAPI(t *testing.T, h http.HandlerFunc) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.reqs = append(f.reqs, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			RequestID:   r.Header.Get("X-Request-ID"),
			Body:        body,
		})
		f.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client(opts ...Option) *Client {
	return New(testToken, append([]Option{WithBaseURL(f.srv.URL)}, opts...)...)
}

func (f *fakeAPI) requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.reqs...)
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func pdfObject(id int, status string) string {
	return fmt.Sprintf(`{"id": %d, "name": "document-%d.pdf", "status": %q, "download_url": "https://files.example.com/%d.pdf", "created_at": "2024-01-01T12:00:00+00:00"}`,
		id, id, status, id)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func decodeHTMLRequest(t *testing.T, body []byte) GenerateFromHTMLRequest {
	t.Helper()
	var req GenerateFromHTMLRequest
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func TestNew_NoNetwork(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, "{}"))
	c := api.client()
	require.NotNil(t, c)
	assert.Empty(t, api.requests())
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := New(testToken, WithBaseURL("https://api.example.com/v2/"))
	assert.Equal(t, "https://api.example.com/v2", c.baseURL)
	assert.Equal(t, DefaultBaseURL, New(testToken).baseURL)
}

func TestGenerateFromHTML_MissingHTML(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(1, "pending")+`}`))
	missing := filepath.Join(t.TempDir(), "missing.html")

	doc, err := api.client().GenerateFromHTML(context.Background(), missing, "", nil)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "HTML file not found or not readable")
	assert.Contains(t, err.Error(), missing)
	assert.Empty(t, api.requests(), "no request may be sent")
}

func TestGenerateFromHTML_HTMLPathIsDirectory(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, "{}"))

	_, err := api.client().GenerateFromHTML(context.Background(), t.TempDir(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, api.requests())
}

func TestGenerateFromHTML_MissingCSS(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(1, "pending")+`}`))
	dir := t.TempDir()
	html := writeFile(t, dir, "index.html", []byte("<h1>Hi</h1>"))
	css := filepath.Join(dir, "missing.css")

	_, err := api.client().GenerateFromHTML(context.Background(), html, css, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "CSS file not found or not readable")
	assert.Contains(t, err.Error(), css)
	assert.Empty(t, api.requests())
}

func TestGenerateFromHTML_Payload(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(123, "pending")+`}`))
	dir := t.TempDir()
	htmlData := []byte("<html><body><img src=\"logo.png\"></body></html>")
	cssData := []byte("body { color: navy; }")
	html := writeFile(t, dir, "index.html", htmlData)
	css := writeFile(t, dir, "style.css", cssData)
	logo := writeFile(t, dir, "logo.png", pngHeader)

	images := []Image{
		{Name: "logo.png", Path: logo},
		{Name: "no-path.png"},
		{Path: logo},
		{Name: "gone.png", Path: filepath.Join(dir, "gone.png")},
	}

	doc, err := api.client().GenerateFromHTML(context.Background(), html, css, images)
	require.NoError(t, err)
	assert.Equal(t, 123, doc.ID())
	assert.Equal(t, StatusPending, doc.Status())

	reqs := api.requests()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/pdfs/generate", r.Path)
	assert.Equal(t, "Bearer "+testToken, r.Auth)
	assert.Equal(t, "application/json", r.ContentType)
	assert.NotEmpty(t, r.RequestID)

	body := decodeHTMLRequest(t, r.Body)
	assert.Equal(t, base64.StdEncoding.EncodeToString(htmlData), body.HTML)
	assert.Equal(t, base64.StdEncoding.EncodeToString(cssData), body.CSS)
	require.Len(t, body.Images, 1)
	assert.Equal(t, "logo.png", body.Images[0].Name)
	assert.Equal(t, "image/png", body.Images[0].MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngHeader), body.Images[0].Content)
}

func TestGenerateFromHTML_OmitsAbsentFields(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(5, "pending")+`}`))
	html := writeFile(t, t.TempDir(), "index.html", []byte("<p>plain</p>"))

	_, err := api.client().GenerateFromHTML(context.Background(), html, "", nil)
	require.NoError(t, err)

	reqs := api.requests()
	require.Len(t, reqs, 1)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &raw))
	assert.Contains(t, raw, "html")
	assert.NotContains(t, raw, "css")
	assert.NotContains(t, raw, "images")
	assert.NotContains(t, raw, "url")
}

func TestGenerateFromHTML_ExplicitMimeType(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(5, "pending")+`}`))
	dir := t.TempDir()
	html := writeFile(t, dir, "index.html", []byte("<p>x</p>"))
	img := writeFile(t, dir, "chart.bin", []byte("opaque"))

	_, err := api.client().GenerateFromHTML(context.Background(), html, "", []Image{
		{Name: "chart", Path: img, MimeType: "image/x-custom"},
	})
	require.NoError(t, err)

	body := decodeHTMLRequest(t, api.requests()[0].Body)
	require.Len(t, body.Images, 1)
	assert.Equal(t, "image/x-custom", body.Images[0].MimeType)
}

func TestGenerateFromHTML_LogsSkippedImages(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(5, "pending")+`}`))
	html := writeFile(t, t.TempDir(), "index.html", []byte("<p>x</p>"))
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := api.client(WithLogger(logger)).GenerateFromHTML(context.Background(), html, "", []Image{
		{Name: "missing-path.png"},
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "skipping image without name or path")
	assert.Contains(t, logs.String(), "sending request")
}

func TestGenerateFromHTML_MissingPDFData(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"data": `+pdfObject(5, "pending")+`}`))
	html := writeFile(t, t.TempDir(), "index.html", []byte("<p>x</p>"))

	doc, err := api.client().GenerateFromHTML(context.Background(), html, "", nil)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Invalid API response: missing pdf data")
}

func TestGenerateFromHTML_InvalidPDFStructure(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": {"id": 5, "name": "x.pdf"}}`))
	html := writeFile(t, t.TempDir(), "index.html", []byte("<p>x</p>"))

	_, err := api.client().GenerateFromHTML(context.Background(), html, "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Invalid PDF data structure")
}

func TestGenerateFromURL_Invalid(t *testing.T) {
	tests := []string{
		"",
		"not a url",
		"example.com",
		"/relative/path",
		"http://",
	}
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(1, "pending")+`}`))
	c := api.client()

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := c.GenerateFromURL(context.Background(), raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), "Invalid URL")
		})
	}
	assert.Empty(t, api.requests())
}

func TestGenerateFromURL(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(456, "processing")+`}`))

	doc, err := api.client().GenerateFromURL(context.Background(), "https://example.com/page?q=1")
	require.NoError(t, err)
	assert.Equal(t, 456, doc.ID())
	assert.Equal(t, StatusProcessing, doc.Status())

	reqs := api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/pdfs/generate", reqs[0].Path)
	assert.JSONEq(t, `{"url": "https://example.com/page?q=1"}`, string(reqs[0].Body))
}

func TestGenerate_StatusError(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusUnprocessableEntity, `{"message": "bad html"}`))

	_, err := api.client().GenerateFromURL(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Contains(t, string(se.Body), "bad html")
}

func TestGenerate_TransportError(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, "{}"))
	c := api.client()
	api.srv.Close()

	_, err := c.GenerateFromURL(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.MethodPost, te.Op)

	var ue *url.Error
	assert.ErrorAs(t, err, &ue)
}

func TestGenerate_MalformedJSON(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `<html>oops</html>`))

	_, err := api.client().GenerateFromURL(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Invalid API response")
}

func TestGetPDF_InvalidID(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"data": `+pdfObject(1, "pending")+`}`))
	c := api.client()

	for _, id := range []int{0, -1} {
		_, err := c.GetPDF(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), fmt.Sprintf("Invalid PDF ID: %d", id))
	}
	assert.Empty(t, api.requests())
}

func TestGetPDF(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"data": `+pdfObject(789, "completed")+`}`))

	doc, err := api.client().GetPDF(context.Background(), 789)
	require.NoError(t, err)
	assert.Equal(t, 789, doc.ID())
	assert.True(t, doc.IsReady())

	reqs := api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/pdfs/789", reqs[0].Path)
	assert.Equal(t, "Bearer "+testToken, reqs[0].Auth)
	assert.Empty(t, reqs[0].Body)
}

func TestGetPDF_MissingData(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusOK, `{"pdf": `+pdfObject(789, "completed")+`}`))

	_, err := api.client().GetPDF(context.Background(), 789)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Invalid API response: missing data")
}

func TestGetPDF_NotFound(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusNotFound, `{"message": "not found"}`))

	_, err := api.client().GetPDF(context.Background(), 42)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestDownloadPDF(t *testing.T) {
	content := []byte("%PDF-1.4\n\x00\x01binary\xff")
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(content)
	})

	data, err := api.client().DownloadPDF(context.Background(), api.srv.URL+"/files/1.pdf")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	reqs := api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/files/1.pdf", reqs[0].Path)
	assert.Equal(t, "Bearer "+testToken, reqs[0].Auth)
}

func TestDownloadPDF_StatusError(t *testing.T) {
	api := newFakeAPI(t, respondJSON(http.StatusForbidden, `{"message": "expired"}`))

	_, err := api.client().DownloadPDF(context.Background(), api.srv.URL+"/files/1.pdf")
	assert.ErrorIs(t, err, ErrTransport)
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithHTTPClient(t *testing.T) {
	var seen *http.Request
	d := doerFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(bytes.NewBufferString(`{"data": ` + pdfObject(9, "failed") + `}`)),
			Header:     make(http.Header),
		}, nil
	})

	doc, err := New(testToken, WithHTTPClient(d), WithUserAgent("tests/1")).GetPDF(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, doc.Status())
	require.NotNil(t, seen)
	assert.Equal(t, DefaultBaseURL+"/pdfs/9", seen.URL.String())
	assert.Equal(t, "tests/1", seen.Header.Get("User-Agent"))
}

func TestWithHTTPClient_ErrorPassedThrough(t *testing.T) {
	boom := errors.New("boom")
	d := doerFunc(func(*http.Request) (*http.Response, error) { return nil, boom })

	_, err := New(testToken, WithHTTPClient(d)).GetPDF(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, boom)
}
