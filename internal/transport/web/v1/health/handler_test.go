package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeCache struct {
	enabled bool
	err     error
}

func (f fakeCache) Ping(context.Context) error { return f.err }
func (f fakeCache) Enabled() bool              { return f.enabled }

var testLog = log.New(io.Discard, "", 0)

func TestLiveness(t *testing.T) {
	h := &Handler{Log: testLog}
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func cacheStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data["cache"]
}

func TestReadiness_DBRequired(t *testing.T) {
	h := &Handler{Log: testLog, DB: fakePinger{err: errors.New("down")}, Cache: fakeCache{enabled: true}}
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReadiness_CacheDegradedStillReady(t *testing.T) {
	h := &Handler{Log: testLog, DB: fakePinger{}, Cache: fakeCache{enabled: true, err: errors.New("down")}}
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", cacheStatus(t, rec))
}

func TestReadiness_DisabledCacheReported(t *testing.T) {
	h := &Handler{Log: testLog, DB: fakePinger{}, Cache: fakeCache{enabled: false}}
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	// выключенный конфигом кеш — не "ok" и не "degraded"
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", cacheStatus(t, rec))
}

func TestReadiness_CacheHealthy(t *testing.T) {
	h := &Handler{Log: testLog, DB: fakePinger{}, Cache: fakeCache{enabled: true}}
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", cacheStatus(t, rec))
}
