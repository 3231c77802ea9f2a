package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
)

// FileFetcher reads file:// documents from the local filesystem.
type FileFetcher struct{}

// Fetch implements Fetcher. A missing file is reported as http_status 404
// so that callers treat it like a missing remote document.
func (FileFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	start := time.Now()
	defer func() { metrics.ObserveFetch("file", time.Since(start).Seconds()) }()

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("not a file:// url")}
	}
	path := filepath.FromSlash(u.Path)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.IncFetchFailure(string(KindHTTPStatus))
			return nil, &FetchError{Kind: KindHTTPStatus, URL: rawURL, Status: 404, Err: err}
		}
		metrics.IncFetchFailure(string(KindNetwork))
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	if err := checkJSON(rawURL, body); err != nil {
		metrics.IncFetchFailure(string(KindParse))
		return nil, err
	}
	doc := &Document{URL: rawURL, Body: body}
	if info, err := os.Stat(path); err == nil {
		doc.LastModified = info.ModTime()
	}
	return doc, nil
}
