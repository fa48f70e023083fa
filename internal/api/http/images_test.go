package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/imgrelay/imgrelay/internal/api/http"
	"github.com/imgrelay/imgrelay/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

/* ---------------- In-memory fakes that satisfy storage.BlobStore ---------------- */

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = b
	return key, nil
}

func (s *fakeStore) Get(key string) (io.ReadCloser, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fakeStore) Stat(key string) (int64, error) {
	b, ok := s.objects[key]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return int64(len(b)), nil
}

func (s *fakeStore) SignedURL(key string) (string, error) {
	return "fake://signed/" + key, nil
}

// brokenStore fails mid-stream: Stat and Get succeed, but the reader dies
// after a prefix of the payload.
type brokenStore struct {
	claimed int64
	prefix  []byte
}

func (s *brokenStore) Put(string, io.Reader) (string, error) { return "", errors.New("read-only") }

func (s *brokenStore) Get(string) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(
		bytes.NewReader(s.prefix),
		&failingReader{err: errors.New("upstream connection reset")},
	)), nil
}

func (s *brokenStore) Stat(string) (int64, error) { return s.claimed, nil }

func (s *brokenStore) SignedURL(string) (string, error) { return "", errors.New("unsupported") }

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func newRelayServer(t *testing.T, bs storage.BlobStore) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	api.MountImages(r, bs, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

/* ---------------- Tests ---------------- */

func TestServeImageByteExact(t *testing.T) {
	bs := newFakeStore()
	want := make([]byte, 2*1024*1024) // the 2 MB scenario
	for i := range want {
		want[i] = byte(i * 31)
	}
	bs.objects["photo1.jpg"] = want

	srv := newRelayServer(t, bs)
	resp, err := http.Get(srv.URL + "/image/photo1.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	require.Equal(t, int64(2097152), resp.ContentLength)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Len(t, got, 2097152)
	require.True(t, bytes.Equal(want, got), "relayed bytes must equal stored bytes")
}

func TestServeImageNestedKey(t *testing.T) {
	bs := newFakeStore()
	bs.objects["albums/2026/pic.png"] = []byte("png-ish")

	srv := newRelayServer(t, bs)
	resp, err := http.Get(srv.URL + "/image/albums/2026/pic.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	got, _ := io.ReadAll(resp.Body)
	require.Equal(t, []byte("png-ish"), got)
}

func TestServeImageMissingKey(t *testing.T) {
	srv := newRelayServer(t, newFakeStore())
	resp, err := http.Get(srv.URL + "/image/missing.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "fetch failed")
	require.Less(t, len(body), 128, "failure body is a short diagnostic, not payload")
}

func TestServeImageEmptyKey(t *testing.T) {
	srv := newRelayServer(t, newFakeStore())
	resp, err := http.Get(srv.URL + "/image/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeImageMidStreamFailureAbortsConnection(t *testing.T) {
	// Large enough that headers and a body prefix are flushed to the wire
	// before the upstream error fires.
	prefix := []byte(strings.Repeat("x", 64*1024))
	srv := newRelayServer(t, &brokenStore{claimed: 1 << 20, prefix: prefix})

	resp, err := http.Get(srv.URL + "/image/flaky.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Headers were already written when the upstream died, so the status is
	// 200; the client must see a broken body, never a clean short read.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = io.ReadAll(resp.Body)
	require.Error(t, err, "truncated stream must surface as a read error")
}

func TestUploadThenServe(t *testing.T) {
	bs := newFakeStore()
	srv := newRelayServer(t, bs)

	payload := []byte("freshly uploaded bytes")
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/image/uploads/new.bin", bytes.NewReader(payload))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var up struct {
		Key string `json:"key"`
	}
	require.NoError(t, jsonDecode(resp.Body, &up))
	require.Equal(t, "uploads/new.bin", up.Key)

	get, err := http.Get(srv.URL + "/image/uploads/new.bin")
	require.NoError(t, err)
	defer get.Body.Close()
	got, _ := io.ReadAll(get.Body)
	require.Equal(t, payload, got)
}

func TestSignedURL(t *testing.T) {
	bs := newFakeStore()
	bs.objects["photo1.jpg"] = []byte("x")
	srv := newRelayServer(t, bs)

	resp, err := http.Get(srv.URL + "/sign/photo1.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, jsonDecode(resp.Body, &out))
	require.Equal(t, "fake://signed/photo1.jpg", out.URL)
}

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
