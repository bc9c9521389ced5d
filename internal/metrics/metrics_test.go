package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishcatcher/internal/metrics"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	r := metrics.NewWithRegistry(reg)

	r.Classified("Phishing", false, time.Millisecond)
	r.Classified("Benign", true, time.Microsecond)
	r.Classified("Benign", false, time.Microsecond)
	r.Failed("parse")

	n, err := promtest.GatherAndCount(reg, "phishcatcher_classifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per label")

	n, err = promtest.GatherAndCount(reg, "phishcatcher_classification_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_NilIsSafe(t *testing.T) {
	t.Parallel()
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.Classified("Benign", true, time.Second)
		r.Failed("parse")
		r.Batch(3)
		r.HTTPRequest("/classify", "200")
	})
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()
	r := metrics.New()
	r.Classified("Malware", false, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `phishcatcher_classifications_total{label="Malware"} 1`)
}
