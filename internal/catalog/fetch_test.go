package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fitout/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeResponse(status int, contentType, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

func TestFetchToFile(t *testing.T) {
	fetcher := NewFetcher(config.Config{UploadDir: t.TempDir(), FetchTimeoutMs: 1000})
	calls := 0
	fetcher.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if r.Method != http.MethodGet || r.URL.Path != "/catalogs/list.csv" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL)
		}
		return fakeResponse(200, "text/csv", "Item,Price\nStool,120\n"), nil
	})}

	path, err := fetcher.FetchToFile(context.Background(), "https://supplier.example/catalogs/list.csv")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
	if filepath.Base(path) != "list.csv" {
		t.Fatalf("path=%q", path)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(blob), "Item,Price") {
		t.Fatalf("content=%q", blob)
	}
}

func TestFetchToFileExtFromContentType(t *testing.T) {
	fetcher := NewFetcher(config.Config{UploadDir: t.TempDir(), FetchTimeoutMs: 1000})
	fetcher.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return fakeResponse(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "stub"), nil
	})}

	path, err := fetcher.FetchToFile(context.Background(), "https://supplier.example/download")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "download.xlsx" {
		t.Fatalf("path=%q", path)
	}
}

func TestFetchToFileUnknownFormat(t *testing.T) {
	fetcher := NewFetcher(config.Config{UploadDir: t.TempDir(), FetchTimeoutMs: 1000})
	fetcher.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return fakeResponse(200, "text/html", "<html></html>"), nil
	})}

	if _, err := fetcher.FetchToFile(context.Background(), "https://supplier.example/page"); err == nil {
		t.Fatal("expected error for unknown content type")
	}
}

func TestFetchToFileErrorStatus(t *testing.T) {
	fetcher := NewFetcher(config.Config{UploadDir: t.TempDir(), FetchTimeoutMs: 1000})
	calls := 0
	fetcher.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return fakeResponse(503, "", ""), nil
	})}

	_, err := fetcher.FetchToFile(context.Background(), "https://supplier.example/catalogs/list.csv")
	if err == nil || !strings.Contains(err.Error(), "status 503") {
		t.Fatalf("err=%v", err)
	}
	// a failed download is not retried
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestFetchToFileBadScheme(t *testing.T) {
	fetcher := NewFetcher(config.Config{UploadDir: t.TempDir(), FetchTimeoutMs: 1000})
	if _, err := fetcher.FetchToFile(context.Background(), "ftp://supplier.example/list.csv"); err == nil {
		t.Fatal("expected error")
	}
}
