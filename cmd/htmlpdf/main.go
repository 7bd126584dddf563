// htmlpdf converts HTML files and web pages to PDF through the hosted API.
//
// Usage:
//
//	htmlpdf html [options] <file.html>
//	htmlpdf url [options] <url>
//	htmlpdf get [options] <id>
//	htmlpdf download [options] <id>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	htmlpdf "github.com/porticus-lab/go-html-pdf-api"
	"github.com/porticus-lab/go-html-pdf-api/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var run func(*app, context.Context, []string) error
	switch os.Args[1] {
	case "html":
		run = (*app).runHTML
	case "url":
		run = (*app).runURL
	case "get":
		run = (*app).runGet
	case "download":
		run = (*app).runDownload
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("HTMLPDF_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Logging)
	a := &app{
		client: htmlpdf.New(cfg.API.Token,
			htmlpdf.WithBaseURL(cfg.API.BaseURL),
			htmlpdf.WithTimeout(cfg.API.TimeoutDuration()),
			htmlpdf.WithLogger(logger),
		),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	if err := run(a, context.Background(), os.Args[2:]); err != nil {
		logger.Debug("command failed", "command", os.Args[1], "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`htmlpdf - HTML to PDF conversion client

Usage:
  htmlpdf html [options] <file.html>
  htmlpdf url [options] <url>
  htmlpdf get [options] <id>
  htmlpdf download [options] <id>

Commands:
  html      Submit a local HTML file for conversion
  url       Submit a web page for conversion
  get       Show the state of a conversion job
  download  Download the PDF of a completed job

Options:
  -css <file>             Stylesheet to send with the HTML (html only)
  -image <name>=<path>    Image to send with the HTML, repeatable; append
                          ;<mime-type> to skip detection (html only)
  -o <file>               Download the PDF to file when it is ready
                          (default for download: <name> of the job)
  -f <format>             Output format: text, json (default: text)
  -info                   Print the page count after downloading

Environment:
  HTMLPDF_API_TOKEN       API token (required)
  HTMLPDF_API_BASE_URL    API endpoint
  HTMLPDF_API_TIMEOUT     Request timeout in seconds (default: 30)
  HTMLPDF_LOGGING_LEVEL   debug, info, warn, error (default: info)
  HTMLPDF_LOGGING_FORMAT  text, json (default: text)
  HTMLPDF_CONFIG          Path to a TOML config file

Examples:
  htmlpdf html -css style.css -image logo.png=assets/logo.png report.html
  htmlpdf url -f json https://example.com
  htmlpdf download -o report.pdf 42
`)
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// app carries what every command needs.
type app struct {
	client *htmlpdf.Client
	stdout io.Writer
	stderr io.Writer
}

// options holds the parsed flags shared by all commands.
type options struct {
	css    string
	images []htmlpdf.Image
	output string
	format string
	info   bool
	arg    string
}

// parseArgs parses flags and the single positional argument. allowed
// lists the flags the command accepts.
func parseArgs(args []string, allowed ...string) (*options, error) {
	opts := &options{format: "text"}
	accepts := func(flag string) bool {
		for _, a := range allowed {
			if a == flag {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(args); i++ {
		flag := args[i]
		if !strings.HasPrefix(flag, "-") {
			if opts.arg != "" {
				return nil, fmt.Errorf("unexpected argument: %s", flag)
			}
			opts.arg = flag
			continue
		}
		if !accepts(flag) {
			return nil, fmt.Errorf("unknown option: %s", flag)
		}
		if flag == "-info" {
			opts.info = true
			continue
		}

		i++
		if i >= len(args) {
			return nil, fmt.Errorf("%s requires an argument", flag)
		}
		value := args[i]
		switch flag {
		case "-css":
			opts.css = value
		case "-image":
			img, err := parseImage(value)
			if err != nil {
				return nil, err
			}
			opts.images = append(opts.images, img)
		case "-o":
			opts.output = value
		case "-f":
			if value != "text" && value != "json" {
				return nil, fmt.Errorf("unknown format: %s", value)
			}
			opts.format = value
		}
	}

	if opts.arg == "" {
		return nil, fmt.Errorf("missing argument")
	}
	return opts, nil
}

// parseImage parses "name=path" or "name=path;mime/type".
func parseImage(s string) (htmlpdf.Image, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" || rest == "" {
		return htmlpdf.Image{}, fmt.Errorf("invalid image %q, want name=path", s)
	}
	path, mimeType, _ := strings.Cut(rest, ";")
	return htmlpdf.Image{Name: name, Path: path, MimeType: mimeType}, nil
}

func (a *app) runHTML(ctx context.Context, args []string) error {
	opts, err := parseArgs(args, "-css", "-image", "-o", "-f", "-info")
	if err != nil {
		return err
	}
	doc, err := a.client.GenerateFromHTML(ctx, opts.arg, opts.css, opts.images)
	if err != nil {
		return err
	}
	return a.report(ctx, doc, opts)
}

func (a *app) runURL(ctx context.Context, args []string) error {
	opts, err := parseArgs(args, "-o", "-f", "-info")
	if err != nil {
		return err
	}
	doc, err := a.client.GenerateFromURL(ctx, opts.arg)
	if err != nil {
		return err
	}
	return a.report(ctx, doc, opts)
}

func (a *app) runGet(ctx context.Context, args []string) error {
	opts, err := parseArgs(args, "-f")
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(opts.arg)
	if err != nil {
		return fmt.Errorf("invalid id: %s", opts.arg)
	}
	doc, err := a.client.GetPDF(ctx, id)
	if err != nil {
		return err
	}
	return printDocument(a.stdout, doc, opts.format)
}

func (a *app) runDownload(ctx context.Context, args []string) error {
	opts, err := parseArgs(args, "-o", "-info")
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(opts.arg)
	if err != nil {
		return fmt.Errorf("invalid id: %s", opts.arg)
	}
	doc, err := a.client.GetPDF(ctx, id)
	if err != nil {
		return err
	}
	if opts.output == "" {
		if opts.output, err = defaultOutput(doc.Name()); err != nil {
			return err
		}
	}
	return a.save(ctx, doc, opts)
}

// defaultOutput turns a job name from the API into a file name in the
// working directory. Directory parts are dropped.
func defaultOutput(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("cannot derive a file name from job name %q; use -o", name)
	}
	return base, nil
}

// report prints a freshly submitted job and saves it when it is already
// complete and an output file was requested.
func (a *app) report(ctx context.Context, doc *htmlpdf.Document, opts *options) error {
	if err := printDocument(a.stdout, doc, opts.format); err != nil {
		return err
	}
	if opts.output == "" {
		return nil
	}
	if !doc.IsReady() {
		fmt.Fprintf(a.stderr, "job %d is %s; run `htmlpdf download -o %s %d` once it completes\n",
			doc.ID(), doc.Status(), opts.output, doc.ID())
		return nil
	}
	return a.save(ctx, doc, opts)
}

func (a *app) save(ctx context.Context, doc *htmlpdf.Document, opts *options) error {
	res, err := doc.Download(ctx)
	if err != nil {
		return err
	}
	if err := res.WriteToFile(opts.output, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.output, err)
	}
	fmt.Fprintf(a.stderr, "wrote %s (%d bytes)\n", opts.output, res.Len())

	if opts.info {
		pages, err := res.PageCount()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "pages: %d\n", pages)
	}
	return nil
}

func printDocument(w io.Writer, doc *htmlpdf.Document, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}
	fmt.Fprintf(w, "ID:       %d\n", doc.ID())
	fmt.Fprintf(w, "Name:     %s\n", doc.Name())
	fmt.Fprintf(w, "Status:   %s\n", doc.Status())
	fmt.Fprintf(w, "Created:  %s\n", doc.CreatedAt().UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Download: %s\n", doc.DownloadURL())
	return nil
}
