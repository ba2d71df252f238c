package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/researchmate/researchmate/types"
)

const articleBody = `<!DOCTYPE html>
<html><head><title>Go Concurrency Patterns</title>
<meta name="author" content="R. Pike">
</head><body>
<article>
<h1>Go Concurrency Patterns</h1>
<p>Concurrency is the composition of independently executing computations.
Go provides goroutines and channels as first-class primitives for building
concurrent programs that are easy to reason about.</p>
</article>
</body></html>`

func testConfig() HTTPConfig {
	cfg := DefaultHTTPConfig()
	cfg.RatePerSecond = 0 // no throttling in tests
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestHTTPFetcher_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(articleBody))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig(), nil, zap.NewNop())

	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, types.FetchSuccess, res.Status)
	assert.Equal(t, "Go Concurrency Patterns", res.Title)
	assert.Contains(t, res.Content, "goroutines and channels")
	assert.Equal(t, "R. Pike", res.Author)
	assert.True(t, res.Usable())
}

func TestHTTPFetcher_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		wantCode      types.ErrorCode
		wantRetryable bool
	}{
		{"not found", http.StatusNotFound, types.ErrHTTPStatus, false},
		{"forbidden", http.StatusForbidden, types.ErrHTTPStatus, false},
		{"rate limited", http.StatusTooManyRequests, types.ErrRateLimited, true},
		{"server error", http.StatusInternalServerError, types.ErrHTTPStatus, true},
		{"bad gateway", http.StatusBadGateway, types.ErrHTTPStatus, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := NewHTTPFetcher(testConfig(), nil, zap.NewNop())

			_, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.wantRetryable, types.IsRetryable(err))
		})
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(articleBody))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	f := NewHTTPFetcher(cfg, nil, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestHTTPFetcher_NoUsableContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head></head><body><script>1</script></body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testConfig(), nil, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, types.ErrExtractFailed, types.GetErrorCode(err))
	assert.False(t, types.IsRetryable(err))
}

func TestHTTPFetcher_ConnectionRefused(t *testing.T) {
	t.Parallel()

	f := NewHTTPFetcher(testConfig(), nil, zap.NewNop())

	// Port 1 is essentially never listening.
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/")
	require.Error(t, err)
	assert.Equal(t, types.ErrNetworkFailure, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestHTTPFetcher_BodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleBody))
		for i := 0; i < 10000; i++ {
			_, _ = w.Write([]byte("<p>padding padding padding padding padding</p>"))
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = int64(len(articleBody))
	f := NewHTTPFetcher(cfg, nil, zap.NewNop())

	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency Patterns", res.Title)
	assert.NotContains(t, res.Content, "padding")
}
