package htmlpdf

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the endpoint of the hosted conversion API.
const DefaultBaseURL = "https://api.htmlpdfapi.com/v1"

// Doer sends an HTTP request and returns its response.
// [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// clientConfig holds internal configuration for a Client.
type clientConfig struct {
	baseURL        string
	httpClient     Doer
	timeout        time.Duration
	userAgent      string
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

func defaultConfig() clientConfig {
	return clientConfig{
		baseURL:   DefaultBaseURL,
		timeout:   30 * time.Second,
		userAgent: "go-html-pdf-api/1",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a [Client].
type Option func(*clientConfig)

// WithBaseURL points the client at another deployment of the API, such as
// a staging host or an [net/http/httptest.Server] in tests. A trailing
// slash is ignored.
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the transport used for every request.
// When set, [WithTimeout] has no effect; configure the timeout on d.
func WithHTTPClient(d Doer) Option {
	return func(c *clientConfig) {
		c.httpClient = d
	}
}

// WithTimeout sets the timeout of the default HTTP client.
// Defaults to 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger enables debug logging of requests and warnings about image
// entries that were left out of a generation request.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used to trace API
// calls. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

func (c clientConfig) tracer() trace.Tracer {
	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/porticus-lab/go-html-pdf-api")
}

func (c clientConfig) doer() Doer {
	if c.httpClient != nil {
		return c.httpClient
	}
	timeout := c.timeout
	if timeout < 0 {
		timeout = 0
	}
	return &http.Client{Timeout: timeout}
}
