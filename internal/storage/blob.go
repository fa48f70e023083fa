package storage

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Get and Stat when no object exists under the key.
var ErrNotFound = errors.New("object not found")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Stat(key string) (int64, error)       // object size in bytes
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
