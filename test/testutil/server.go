// Package testutil provides a fake release host and archive builders for tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glorpus-work/formula/pkg/archive"
	"github.com/stretchr/testify/require"
)

// Server serves a fixed path to content map and counts requests per path.
// Unknown paths answer 404.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	files   map[string][]byte
	hits    map[string]int
	headers map[string]http.Header
}

// NewServer starts a server for files. It is closed when the test ends.
func NewServer(t *testing.T, files map[string][]byte) *Server {
	t.Helper()
	s := &Server{files: map[string][]byte{}, hits: map[string]int{}, headers: map[string]http.Header{}}
	for p, content := range files {
		s.files[p] = content
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// NewReleaseServer serves assets the way a GitHub release does, under
// /releases/download/<tag>/, each with a "<name>.sha256" file next to it.
func NewReleaseServer(t *testing.T, tag string, assets map[string][]byte) *Server {
	t.Helper()
	files := make(map[string][]byte, 2*len(assets))
	for name, content := range assets {
		p := ReleasePath(tag, name)
		files[p] = content
		files[p+".sha256"] = []byte(SHA256Hex(content) + "  " + name + "\n")
	}
	return NewServer(t, files)
}

// ReleasePath is the URL path of a release asset.
func ReleasePath(tag, name string) string {
	return "/releases/download/" + tag + "/" + name
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.headers[r.URL.Path] = r.Header.Clone()
	content, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(content)
}

// Hits returns how often path was requested.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastHeader returns header key of the most recent request for path.
func (s *Server) LastHeader(path, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[path].Get(key)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// BuildTarGz returns a .tar.gz archive holding files (name to content), all
// written executable.
func BuildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	for name, content := range files {
		full := filepath.Join(src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o755))
	}

	out := filepath.Join(dir, "release.tar.gz")
	require.NoError(t, archive.NewManager().Create(context.Background(), src, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}
