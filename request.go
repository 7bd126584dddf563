package htmlpdf

import (
	"encoding/base64"
	"net/url"
	"os"
)

// Image is a local image to ship along with an HTML document. Name is the
// reference used by the HTML (for example in an img src attribute). When
// MimeType is empty it is detected from the file.
type Image struct {
	Name     string
	Path     string
	MimeType string
}

// ImagePayload is the wire form of an [Image].
type ImagePayload struct {
	Name     string `json:"name"`
	Content  string `json:"content"` // base64
	MimeType string `json:"mime_type"`
}

// GenerateFromHTMLRequest is the body of a generation request built from
// local files. HTML and CSS hold base64-encoded file contents.
type GenerateFromHTMLRequest struct {
	HTML   string         `json:"html"`
	CSS    string         `json:"css,omitempty"`
	Images []ImagePayload `json:"images,omitempty"`
}

// GenerateFromURLRequest is the body of a generation request for a
// remote page.
type GenerateFromURLRequest struct {
	URL string `json:"url"`
}

// buildHTMLRequest reads and encodes the local inputs of a generation
// request. Malformed or unreadable image entries are left out.
func (c *Client) buildHTMLRequest(htmlPath, cssPath string, images []Image) (*GenerateFromHTMLRequest, error) {
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, invalidInput("HTML file not found or not readable: %s", htmlPath)
	}

	req := &GenerateFromHTMLRequest{
		HTML: base64.StdEncoding.EncodeToString(html),
	}

	if cssPath != "" {
		css, err := os.ReadFile(cssPath)
		if err != nil {
			return nil, invalidInput("CSS file not found or not readable: %s", cssPath)
		}
		req.CSS = base64.StdEncoding.EncodeToString(css)
	}

	for i, img := range images {
		if img.Name == "" || img.Path == "" {
			c.logger.Warn("skipping image without name or path", "index", i, "name", img.Name, "path", img.Path)
			continue
		}
		data, err := os.ReadFile(img.Path)
		if err != nil {
			c.logger.Warn("skipping unreadable image", "index", i, "name", img.Name, "error", err)
			continue
		}
		mt := img.MimeType
		if mt == "" {
			mt = detectMimeType(img.Path, data)
		}
		req.Images = append(req.Images, ImagePayload{
			Name:     img.Name,
			Content:  base64.StdEncoding.EncodeToString(data),
			MimeType: mt,
		})
	}

	return req, nil
}

// validateURL accepts absolute URLs with both a scheme and a host.
func validateURL(rawURL string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalidInput("Invalid URL: %q", rawURL)
	}
	return nil
}
