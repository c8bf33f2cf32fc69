package htmx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func testPage() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!doctype html><html><body><main><h1>Hello</h1></main></body></html>")
		return err
	})
}

func TestIsHTMXRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsHTMXRequest(r) {
		t.Fatal("expected plain request")
	}

	r.Header.Set(RequestHeaderKey, "true")
	if !IsHTMXRequest(r) {
		t.Fatal("expected htmx request")
	}

	if IsHTMXRequest(nil) {
		t.Fatal("expected nil request to be plain")
	}
}

func TestRenderPageFull(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RenderPage(w, r, testPage())

	body := w.Body.String()
	if !strings.Contains(body, "<!doctype html>") {
		t.Fatalf("expected full page, got %q", body)
	}
}

func TestRenderPagePartial(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestHeaderKey, "true")

	RenderPage(w, r, testPage())

	body := w.Body.String()
	if strings.Contains(body, "<!doctype html>") || strings.Contains(body, "<main") {
		t.Fatalf("expected main content only, got %q", body)
	}
	if !strings.Contains(body, "<h1>Hello</h1>") {
		t.Fatalf("expected heading in partial, got %q", body)
	}
}
