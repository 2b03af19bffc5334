package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glorpus-work/formula/pkg/auth"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{name: "default user agent", timeout: time.Second, expectedUA: DefaultUserAgent},
		{name: "custom user agent", timeout: 2 * time.Second, userAgent: "test-agent/1.0", expectedUA: "test-agent/1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.timeout, tt.userAgent)
			require.NotNil(t, m)
			assert.Equal(t, tt.timeout, m.client.Timeout)
			assert.Equal(t, tt.expectedUA, m.userAgent)
		})
	}
}

func TestFetch_WithChecksum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("test content"))
	}))
	defer server.Close()

	tests := []struct {
		name        string
		checksum    string
		expectError error
	}{
		{name: "valid checksum", checksum: sha256Hex("test content")},
		{name: "upper-case checksum", checksum: strings.ToUpper(sha256Hex("test content"))},
		{name: "no checksum"},
		{name: "mismatch", checksum: strings.Repeat("0", 64), expectError: errors.ErrIntegrity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			m := NewManager(time.Second, "test")

			path, err := m.Fetch(context.Background(), Item{ID: "a", URL: mustParse(t, server.URL), Checksum: tt.checksum}, Options{Dir: tempDir})
			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				assert.NotErrorIs(t, err, errors.ErrFetch)
				entries, readErr := os.ReadDir(tempDir)
				require.NoError(t, readErr)
				assert.Empty(t, entries, "rejected download must not stay in the cache")
				return
			}
			require.NoError(t, err)
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "test content", string(content))
		})
	}
}

func TestFetch_ErrorHandling(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError string
	}{
		{name: "not found", status: http.StatusNotFound, expectError: "unexpected status code: 404"},
		{name: "bad request", status: http.StatusBadRequest, expectError: "unexpected status code: 400"},
		{name: "server error", status: http.StatusInternalServerError, expectError: "unexpected status code: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			m := NewManager(time.Second, "test")
			_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, server.URL)}, Options{Dir: t.TempDir()})
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrFetch)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestFetch_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	m := NewManager(time.Second, "test")
	_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, server.URL)}, Options{Dir: t.TempDir()})
	require.ErrorIs(t, err, errors.ErrFetch)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_Authenticated(t *testing.T) {
	var gotAuth, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	m := NewManager(time.Second, "test").WithAuth(auth.BearerAuth{Token: "secret", Hosts: []string{"127.0.0.1"}})
	_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, server.URL)}, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test", gotUA)

	m.WithAuth(nil)
	_, err = m.Fetch(context.Background(), Item{ID: "y", URL: mustParse(t, server.URL)}, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestFetch_TokenNotSentToOtherHosts(t *testing.T) {
	t.Setenv(auth.TokenEnv, "ghp_secret")
	var gotAuth string
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	m := NewManager(time.Second, "test").WithAuth(auth.FromToken(""))
	_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, server.URL+"/pacaptr.tar.gz")}, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
	assert.Empty(t, gotAuth, "a token scoped to GitHub must not reach %s", server.URL)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	m := NewManager(50*time.Millisecond, "test")
	_, err := m.Fetch(context.Background(), Item{ID: "slow", URL: mustParse(t, server.URL)}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, errors.ErrFetch)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	m := NewManager(time.Second, "test")
	_, err := m.Fetch(context.Background(), Item{ID: "gone", URL: mustParse(t, addr)}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, errors.ErrFetch)
}

func TestFetch_RelativeDir(t *testing.T) {
	m := NewManager(time.Second, "test")
	_, err := m.Fetch(context.Background(), Item{ID: "x", URL: mustParse(t, "https://example.com")}, Options{Dir: "relative"})
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}

func TestFetch_ReusesVerifiedCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("cached"))
	}))
	defer server.Close()

	dir := t.TempDir()
	item := Item{ID: "c", URL: mustParse(t, server.URL), Checksum: sha256Hex("cached")}
	m := NewManager(time.Second, "test")

	first, err := m.Fetch(context.Background(), item, Options{Dir: dir})
	require.NoError(t, err)
	second, err := m.Fetch(context.Background(), item, Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchAll_Concurrent(t *testing.T) {
	const numItems = 5
	serverResponses := make(map[string]string)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, exists := serverResponses[r.URL.Path[1:]]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	var items []Item
	for i := 0; i < numItems; i++ {
		id := string(rune('a' + i))
		serverResponses[id] = "content for " + id
		items = append(items, Item{ID: id, URL: mustParse(t, server.URL+"/"+id), Filename: id + ".sha256"})
	}
	// duplicate URL under a second ID is fetched once and shared
	items = append(items, Item{ID: "a-again", URL: items[0].URL, Filename: "a.sha256"})

	m := NewManager(5*time.Second, "test")
	results, err := m.FetchAll(context.Background(), items, Options{Dir: t.TempDir(), Concurrency: 3})
	require.NoError(t, err)
	require.Len(t, results, numItems+1)

	for _, item := range items {
		content, err := os.ReadFile(results[item.ID])
		require.NoError(t, err)
		assert.Equal(t, serverResponses[strings.TrimSuffix(item.ID, "-again")], string(content))
	}
}

func TestFetchAll_PropagatesFirstError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	items := []Item{
		{ID: "ok", URL: mustParse(t, server.URL+"/ok")},
		{ID: "missing", URL: mustParse(t, server.URL+"/missing")},
	}
	m := NewManager(time.Second, "test")
	_, err := m.FetchAll(context.Background(), items, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, errors.ErrFetch)

	_, err = m.FetchAll(context.Background(), []Item{{ID: "nil"}}, Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, errors.ErrFetch)
}
