// internal/api/http/images.go
package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/imgrelay/imgrelay/internal/storage"
	"github.com/imgrelay/imgrelay/internal/translog"
)

// MountImages wires the relay routes. tl may be nil (transfer log disabled).
func MountImages(r chi.Router, bs storage.BlobStore, tl *translog.Repo) {
	// GET /image/*  -> stream the object at whatever follows /image/
	r.Get("/image/*", serveImage(bs, tl))

	// PUT /image/*  -> store the request body under the key
	r.Put("/image/*", func(w http.ResponseWriter, r *http.Request) {
		key := wildcardKey(r)
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		if _, err := bs.Put(key, r.Body); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key})
	})

	// GET /sign/*  -> direct URL for the object (presigned for s3, file:// for fs)
	r.Get("/sign/*", func(w http.ResponseWriter, r *http.Request) {
		key := wildcardKey(r)
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		u, err := bs.SignedURL(key)
		if err != nil {
			http.Error(w, "sign failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": u})
	})
}

// serveImage forwards object bytes as they arrive. The status line is only
// written after the upstream stream is open, so a failure response never
// carries payload bytes. A failure after forwarding has begun aborts the
// connection instead of finishing with a truncated 200.
func serveImage(bs storage.BlobStore, tl *translog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := wildcardKey(r)
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		start := time.Now()

		size, err := bs.Stat(key)
		if err != nil {
			fail(w, tl, key, start, err)
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			fail(w, tl, key, start, err)
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(filepath.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))

		n, err := io.Copy(w, rc)
		if err != nil {
			log.Printf("relay %s aborted after %d bytes: %v", key, n, err)
			record(tl, translog.Entry{
				Key: key, Outcome: translog.OutcomeError,
				Bytes: n, Duration: time.Since(start), Detail: err.Error(),
			})
			panic(http.ErrAbortHandler)
		}
		log.Printf("relayed %s (%d bytes)", key, n)
		record(tl, translog.Entry{
			Key: key, Outcome: translog.OutcomeOK,
			Bytes: n, Duration: time.Since(start),
		})
	}
}

func fail(w http.ResponseWriter, tl *translog.Repo, key string, start time.Time, err error) {
	log.Printf("relay %s failed: %v", key, err)
	record(tl, translog.Entry{
		Key: key, Outcome: translog.OutcomeError,
		Duration: time.Since(start), Detail: err.Error(),
	})
	// not-found and transport errors alike surface as a single 500
	http.Error(w, "fetch failed: "+err.Error(), http.StatusInternalServerError)
}

func record(tl *translog.Repo, e translog.Entry) {
	if tl == nil {
		return
	}
	if err := tl.Append(context.Background(), e); err != nil {
		log.Printf("transfer log append: %v", err)
	}
}

func wildcardKey(r *http.Request) string {
	key := chi.URLParam(r, "*")
	return strings.TrimPrefix(key, "/") // normalize
}
