package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/local"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/redisstore"
	"github.com/fairyhunter13/ai-interviewer/internal/app"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisstore.New(rdb, "test:state")

	cfg := config.Config{
		AppEnv:          "test",
		MaxUploadMB:     10,
		RateLimitPerMin: 1000,
	}
	provider := ai.NewProvider(nil, local.DefaultBank())
	engine := usecase.NewOrchestrator(store, provider)
	srv := httpserver.NewServer(cfg, engine, nil, store.Ping)
	return app.BuildRouter(cfg, srv)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis"`)

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersPresent(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCreateSessionAndInfoFlow(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeSession(t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, string(domain.StatusCollectingInfo), created["status"])

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": "Jane Doe"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": "jane@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": "0812345678"})
	require.Equal(t, http.StatusOK, rec.Code)
	started := decodeSession(t, rec)
	assert.Equal(t, string(domain.StatusInProgress), started["status"])
	questions, _ := started["questions"].([]any)
	require.Len(t, questions, 1)

	rec = doJSON(t, h, http.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeSession(t, rec)
	assert.Positive(t, view["timer_remaining_seconds"])
}

func TestSubmitMessageValidation(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec)["id"].(string)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/messages", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ARGUMENT")

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownSession(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/v1/sessions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestCurrentAndDiscard(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodGet, "/v1/sessions/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cur struct {
		Session   map[string]any `json:"session"`
		Resumable bool           `json:"resumable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cur))
	assert.Equal(t, id, cur.Session["id"])

	rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/discard", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftRejectedOutsideInterview(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodPut, "/v1/sessions/"+id+"/draft", map[string]string{"content": "typing"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResumeUploadPrefillsInfo(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("resume", "resume.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Jane Doe\nFull Stack Developer\njane.doe@example.com\n+62 812-3456-7890\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeSession(t, rec)
	info, _ := created["info"].(map[string]any)
	require.NotNil(t, info)
	assert.Equal(t, "Jane Doe", info["name"])
	assert.Equal(t, "jane.doe@example.com", info["email"])
	// All contact fields were valid, so the interview starts immediately.
	assert.Equal(t, string(domain.StatusInProgress), created["status"])
}

func TestResumeUploadRejectsBadExtension(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("resume", "malware.exe")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MZ binary"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestFullInterviewThroughAPI(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec)["id"].(string)

	for _, msg := range []string{"Jane Doe", "jane@example.com", "0812345678"} {
		rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": msg})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	answer := "I would use component state and props carefully, because for example `const x = useMemo()` caches results and improves performance across render cycles in React applications"
	var final map[string]any
	for i := 0; i < domain.TotalQuestions; i++ {
		rec = doJSON(t, h, http.MethodPost, "/v1/sessions/"+id+"/messages", map[string]string{"content": fmt.Sprintf("%s attempt %d", answer, i)})
		require.Equal(t, http.StatusOK, rec.Code)
		final = decodeSession(t, rec)
	}
	assert.Equal(t, string(domain.StatusCompleted), final["status"])
	assert.Positive(t, final["total_score"])

	rec = doJSON(t, h, http.MethodGet, "/v1/dashboard/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		Candidates []map[string]any `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash.Candidates, 1)
	assert.Equal(t, "Jane Doe", dash.Candidates[0]["name"])

	rec = doJSON(t, h, http.MethodGet, "/v1/dashboard/candidates/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "final_summary")
}

func TestDashboardDetailHidesUnfinished(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodGet, "/v1/dashboard/candidates/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
