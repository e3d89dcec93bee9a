package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/metrics"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

type staticSource struct {
	snap   snapshot.Snapshot
	online bool
}

func (s staticSource) Current() snapshot.Snapshot { return s.snap }
func (s staticSource) Online() bool               { return s.online }

func onlineSource() staticSource {
	snap := snapshot.Default()
	snap.System.Status = snapshot.StatusOn
	snap.System.CPUTemperature = "48 °C"
	snap.Disks = []snapshot.DiskRecord{{Device: "sda", Temperature: "35 °C"}}
	return staticSource{snap: snap, online: true}
}

func TestServeMux_Healthz(t *testing.T) {
	tests := []struct {
		name   string
		online bool
		code   int
		body   string
	}{
		{"online", true, http.StatusOK, "ok\n"},
		{"offline", false, http.StatusServiceUnavailable, "offline\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newServeMux(staticSource{online: tt.online}, http.NotFoundHandler())
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestServeMux_Snapshot(t *testing.T) {
	src := onlineSource()
	mux := newServeMux(src, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env struct {
		Success bool              `json:"success"`
		Data    snapshot.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, src.snap.System.CPUTemperature, env.Data.System.CPUTemperature)
}

func TestServeMux_Metrics(t *testing.T) {
	src := onlineSource()
	exporter := metrics.New()
	exporter.Observe(src.snap)
	mux := newServeMux(src, exporter.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nasmon_")
}

func TestServeMux_RejectsPost(t *testing.T) {
	mux := newServeMux(onlineSource(), http.NotFoundHandler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
