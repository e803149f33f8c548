package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitout/internal/config"
)

type Fetcher struct {
	cfg        config.Config
	httpClient *http.Client
}

func NewFetcher(cfg config.Config) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond},
	}
}

// FetchToFile downloads a remote catalog into a fresh upload directory and
// returns the local path. Exactly one request is made; a transport failure
// or non-2xx status is a hard error, never retried.
func (f *Fetcher) FetchToFile(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch catalog: status %d from %s", resp.StatusCode, u.Host)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "catalog"
	}
	if filepath.Ext(name) == "" {
		ext := extFromContentType(resp.Header.Get("Content-Type"))
		if ext == "" {
			return "", fmt.Errorf("cannot determine catalog format for %s", rawURL)
		}
		name += ext
	}

	destDir := filepath.Join(f.cfg.UploadDir, uuid.NewString())
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, name)

	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("save catalog: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}

func extFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "text/csv"):
		return ".csv"
	case strings.Contains(ct, "spreadsheetml"):
		return ".xlsx"
	case strings.Contains(ct, "application/pdf"):
		return ".pdf"
	default:
		return ""
	}
}
