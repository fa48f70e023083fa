// Package consumer downloads a relayed stream to a local cache file and
// reports ready/error to its caller, substituting a fixed fallback image
// when the download or the local write fails.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Consumer struct {
	serviceURL string // relay base URL, no trailing slash
	cacheDir   string
	client     *http.Client
}

func New(serviceURL, cacheDir string) (*Consumer, error) {
	if serviceURL == "" {
		return nil, errors.New("service URL required")
	}
	if cacheDir == "" {
		return nil, errors.New("cache dir required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}
	return &Consumer{
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		cacheDir:   cacheDir,
		client:     http.DefaultClient,
	}, nil
}

// CachePath is where a successful fetch of key lands. Cleaning is rooted so
// keys cannot address files outside the cache dir.
func (c *Consumer) CachePath(key string) string {
	clean := filepath.Clean("/" + strings.TrimPrefix(key, "/"))
	return filepath.Join(c.cacheDir, clean)
}

// Fetch streams {serviceURL}/image/{key} into the cache and returns the
// terminal Result. Bytes go to a temp file first and are renamed into place
// on success, so a failed download never leaves a half-written file under
// the final name. No retry: both outcomes are terminal for this invocation.
func (c *Consumer) Fetch(ctx context.Context, key string) Result {
	if key == "" {
		return c.failed(errors.New("empty key"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceURL+"/image/"+key, nil)
	if err != nil {
		return c.failed(err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return c.failed(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return c.failed(fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(diag))))
	}

	dst := c.CachePath(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return c.failed(err)
	}
	tmp := filepath.Join(c.cacheDir, "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return c.failed(err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return c.failed(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return c.failed(err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return c.failed(err)
	}

	return Result{State: StateReady, Path: dst}
}

func (c *Consumer) failed(err error) Result {
	path, ferr := c.fallbackPath()
	if ferr != nil {
		// No renderable file at all; Path stays empty.
		return Result{State: StateError, Err: errors.Join(err, ferr)}
	}
	return Result{State: StateError, Path: path, Err: err}
}
