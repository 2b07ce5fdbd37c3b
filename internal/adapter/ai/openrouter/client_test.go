package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/config"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		AppEnv:                 "test",
		OpenRouterAPIKey:       "test-key",
		OpenRouterBaseURL:      baseURL,
		OpenRouterModel:        "test/model",
		ProviderMaxAttempts:    3,
		ProviderRetryBaseDelay: 0,
	}
}

func TestCompleteSuccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	got, err := c.Complete(context.Background(), "sys", "user", 0.7, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestCompleteRetriesOnThrottle(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	got, err := c.Complete(context.Background(), "sys", "user", 0.3, 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCompleteGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user", 0.3, 100)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user", 0.3, 100)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx other than 429 must be permanent")
}

func TestCompleteEmptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), "sys", "user", 0.3, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	t.Parallel()
	c := New(config.Config{AppEnv: "test"})
	_, err := c.Complete(context.Background(), "sys", "user", 0.3, 100)
	require.Error(t, err)
}
