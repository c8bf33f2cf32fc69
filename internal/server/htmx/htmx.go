// Package htmx renders pages for both full-page and HTMX partial requests.
package htmx

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// RequestHeaderKey is the HTMX request header used to detect partial updates.
const RequestHeaderKey = "HX-Request"

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeaderKey), "true")
}

// responseBuffer captures component rendering so headers and status can be
// adjusted before the partial body is written.
type responseBuffer struct {
	header      http.Header
	statusCode  int
	body        bytes.Buffer
	headerWrote bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (w *responseBuffer) Header() http.Header {
	return w.header
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.headerWrote {
		return
	}
	w.headerWrote = true
	w.statusCode = status
}

func (w *responseBuffer) Write(body []byte) (int, error) {
	return w.body.Write(body)
}

// RenderPage renders full for normal requests. For HTMX requests it renders
// full, extracts the <main> content, and writes only that, so the layout is
// not duplicated inside the swap target.
func RenderPage(w http.ResponseWriter, r *http.Request, full templ.Component) {
	if full == nil {
		return
	}

	if !IsHTMXRequest(r) {
		templ.Handler(full).ServeHTTP(w, r)
		return
	}

	capture := newResponseBuffer()
	templ.Handler(full).ServeHTTP(capture, r)

	body := capture.body.Bytes()
	if mainContent, ok := extractMainContent(body); ok {
		body = mainContent
	}

	copyHeaders(w.Header(), capture.Header())
	if capture.statusCode != http.StatusOK {
		w.WriteHeader(capture.statusCode)
	}
	_, _ = w.Write(body)
}

func extractMainContent(body []byte) ([]byte, bool) {
	start := bytes.Index(body, []byte("<main"))
	if start < 0 {
		return nil, false
	}
	openClose := bytes.Index(body[start:], []byte(">"))
	if openClose < 0 {
		return nil, false
	}
	contentStart := start + openClose + 1
	end := bytes.Index(body[contentStart:], []byte("</main>"))
	if end < 0 {
		return nil, false
	}
	return body[contentStart : contentStart+end], true
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if strings.EqualFold(key, "Set-Cookie") {
			for _, value := range values {
				dst.Add(key, value)
			}
			continue
		}
		for _, value := range values {
			dst.Set(key, value)
		}
	}
}
