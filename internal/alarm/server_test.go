package alarm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServer_Endpoints(t *testing.T) {
	emitter, metrics := newTestEmitter(t, 21)
	emitter.tick()

	srv := NewServer("127.0.0.1:0", "release", emitter, metrics)

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Status          string `json:"status"`
			Timestamp       string `json:"timestamp"`
			GenerationCount int64  `json:"generation_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "healthy", body.Status)
		require.NotEmpty(t, body.Timestamp)
		require.Equal(t, int64(1), body.GenerationCount)
	})

	t.Run("stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			GenerationCount int64              `json:"generation_count"`
			Totals          map[string]int64   `json:"current_totals"`
			Rates           map[string]float64 `json:"current_rates_per_10s"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, int64(1), body.GenerationCount)
		require.Len(t, body.Rates, len(testCatalog()))
		for _, at := range testCatalog() {
			require.Contains(t, body.Totals, at.Name)
			require.GreaterOrEqual(t, body.Rates[at.Name], 0.0)
		}
	})

	t.Run("metrics exposition", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		require.Contains(t, body, "alarm_total_high_cpu_usage_total")
		require.Contains(t, body, "alarm_rate_high_cpu_usage_per_10s")
		require.Contains(t, body, "alarm_total_backup_failed_total")
	})
}
