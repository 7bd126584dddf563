package htmlpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Status is the state of a generation job. The API may introduce values
// beyond the constants below; they are kept verbatim.
type Status string

// Known job states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is an immutable snapshot of one generation job.
//
// Documents are created by a [Client] and keep a reference to it so that
// [Document.Download] and [Document.Refresh] can issue follow-up requests.
type Document struct {
	id          int
	name        string
	status      Status
	downloadURL string
	createdAt   time.Time

	client *Client
}

// ID returns the job id assigned by the API.
func (d *Document) ID() int { return d.id }

// Name returns the file name of the generated PDF.
func (d *Document) Name() string { return d.name }

// Status returns the job state at the time the snapshot was taken.
func (d *Document) Status() Status { return d.status }

// DownloadURL returns the URL serving the PDF. It requires the API token
// of the client that produced the Document.
func (d *Document) DownloadURL() string { return d.downloadURL }

// CreatedAt returns the creation time of the job.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// IsReady reports whether the PDF can be downloaded.
func (d *Document) IsReady() bool { return d.status == StatusCompleted }

// Download fetches the PDF. It fails with [ErrNotReady], without any
// request, unless the job is completed.
func (d *Document) Download(ctx context.Context) (*Result, error) {
	if !d.IsReady() {
		return nil, fmt.Errorf("%w: PDF is not ready yet. Current status: %s", ErrNotReady, d.status)
	}
	data, err := d.client.DownloadPDF(ctx, d.downloadURL)
	if err != nil {
		return nil, err
	}
	return &Result{data: data}, nil
}

// DownloadToFile downloads the PDF and writes it to path. A nil error
// means the whole file was written; on failure nothing is left at path.
func (d *Document) DownloadToFile(ctx context.Context, path string) error {
	res, err := d.Download(ctx)
	if err != nil {
		return err
	}
	if err := res.WriteToFile(path, 0o644); err != nil {
		return fmt.Errorf("%w: Failed to write PDF to file: %s: %w", ErrIO, path, err)
	}
	return nil
}

// Refresh fetches the job again and returns a new Document. d is left
// unchanged.
func (d *Document) Refresh(ctx context.Context) (*Document, error) {
	return d.client.GetPDF(ctx, d.id)
}

// String returns a one-line summary such as "#42 invoice.pdf (completed)".
func (d *Document) String() string {
	return fmt.Sprintf("#%d %s (%s)", d.id, d.name, d.status)
}

// MarshalJSON encodes the Document in the shape the API uses.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Status      Status `json:"status"`
		DownloadURL string `json:"download_url"`
		CreatedAt   string `json:"created_at"`
	}{d.id, d.name, d.status, d.downloadURL, d.createdAt.Format(time.RFC3339Nano)})
}

var requiredFields = []string{"id", "name", "status", "download_url", "created_at"}

// newDocument validates a job object from an API response. It returns
// either a fully populated Document or an error wrapping ErrInvalidInput.
func newDocument(data json.RawMessage, c *Client) (*Document, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, invalidInput("Invalid PDF data structure")
	}

	values := make(map[string]string, len(requiredFields))
	for _, key := range requiredFields {
		s, ok := scalarString(fields[key])
		if !ok || s == "" {
			return nil, invalidInput("Invalid PDF data structure: missing %s", key)
		}
		values[key] = s
	}

	id, err := parseID(values["id"])
	if err != nil {
		return nil, invalidInput("Invalid PDF data structure: id %q is not a positive integer", values["id"])
	}

	createdAt, err := parseTimestamp(values["created_at"])
	if err != nil {
		return nil, invalidInput("Invalid created_at format: %s", values["created_at"])
	}

	return &Document{
		id:          id,
		name:        values["name"],
		status:      Status(values["status"]),
		downloadURL: values["download_url"],
		createdAt:   createdAt,
		client:      c,
	}, nil
}

// scalarString converts a decoded JSON scalar to its string form.
// Missing members, null, arrays and objects are rejected.
func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// parseID accepts integral numbers, including "7" and "7.0".
func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("id out of range: %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 1 || f != float64(int(f)) {
		return 0, fmt.Errorf("id not a positive integer: %s", s)
	}
	return int(f), nil
}

// Layouts tried before falling back to free-form parsing.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
}

// parseTimestamp tries strict ISO 8601 with an offset, then fractional
// seconds with a literal Z, then any format dateparse recognises.
// Times without a zone are taken as UTC. Values without a year, which
// dateparse resolves to year 0, are rejected.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() == 0 {
		return time.Time{}, fmt.Errorf("timestamp %q has no year", raw)
	}
	return t, nil
}
