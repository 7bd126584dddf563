package htmlpdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Result holds a downloaded PDF and provides helpers for common output
// formats such as raw bytes, base64 encoding, and streaming readers.
//
// The bytes are exactly what the download URL served. It is safe to call
// the methods of a Result multiple times; the underlying data is never
// modified.
type Result struct {
	data []byte
}

// Bytes returns the raw PDF content.
func (r *Result) Bytes() []byte {
	return r.data
}

// Base64 returns the PDF encoded as a standard base64 string (RFC 4648).
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns an [*bytes.Reader] over the PDF content.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the PDF to path. The content goes to a temporary
// file in the same directory first and is renamed into place, so path
// either receives the whole PDF or is left untouched.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(r.data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Len returns the size of the PDF in bytes.
func (r *Result) Len() int {
	return len(r.data)
}

// IsPDF reports whether the content starts with the PDF magic number.
func (r *Result) IsPDF() bool {
	return bytes.HasPrefix(r.data, []byte("%PDF-"))
}

// PageCount parses the PDF and returns its number of pages.
func (r *Result) PageCount() (int, error) {
	if !r.IsPDF() {
		return 0, fmt.Errorf("htmlpdf: not a PDF file")
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(r.Reader(), conf)
	if err != nil {
		return 0, fmt.Errorf("htmlpdf: reading page count: %w", err)
	}
	return n, nil
}
