// Package htmlpdf is a client for a hosted HTML to PDF conversion API.
//
// The API renders PDFs on its own servers. This package builds the
// requests, decodes the jobs the API returns, and downloads finished PDFs.
//
// # Generating a PDF
//
// Create a [Client] with an API token. No request is made until a
// method is called:
//
//	c := htmlpdf.New(os.Getenv("HTMLPDF_API_TOKEN"))
//
// Submit a local HTML file, optionally with a stylesheet and images. The
// files are read and sent base64-encoded:
//
//	doc, err := c.GenerateFromHTML(ctx, "report.html", "report.css", []htmlpdf.Image{
//	    {Name: "logo.png", Path: "assets/logo.png"},
//	})
//
// Or a public page:
//
//	doc, err := c.GenerateFromURL(ctx, "https://example.com")
//
// # Jobs
//
// Each call returns a [Document], an immutable snapshot of the job.
// Conversion may finish later; [Document.Refresh] fetches a new snapshot
// and [Document.IsReady] reports whether the PDF can be downloaded:
//
//	for !doc.IsReady() {
//	    time.Sleep(time.Second)
//	    if doc, err = doc.Refresh(ctx); err != nil {
//	        return err
//	    }
//	}
//	err = doc.DownloadToFile(ctx, "report.pdf")
//
// [Document.Download] returns a [Result] with the raw bytes:
//
//	res, err := doc.Download(ctx)
//	res.Bytes()       // []byte
//	res.Base64()      // base64 string (RFC 4648)
//	res.PageCount()   // parsed page count
//
// # Errors
//
// Failures can be classified with [errors.Is]: [ErrInvalidInput] for bad
// arguments and malformed responses, [ErrNotReady] for downloads of
// unfinished jobs, [ErrIO] for local write failures, and [ErrTransport]
// for network failures and non-2xx responses. Use [errors.As] with
// [*StatusError] to inspect the HTTP status.
package htmlpdf
