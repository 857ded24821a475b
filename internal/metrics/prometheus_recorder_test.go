package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, pr *PrometheusRecorder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buildchain.prom")
	require.NoError(t, pr.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPrometheusRecorder_CountsEvents(t *testing.T) {
	t.Parallel()

	pr := NewPrometheusRecorder(prom.NewRegistry())
	pr.IncLines()
	pr.IncLines()
	pr.IncLinks("job03")
	pr.IncResolve(ResolveReadError)
	pr.ObserveResolveDuration(20 * time.Millisecond)
	pr.IncParseFailures()

	out := scrape(t, pr)
	assert.Contains(t, out, "buildchain_lines_total 2")
	assert.Contains(t, out, `buildchain_links_total{job="job03"} 1`)
	assert.Contains(t, out, `buildchain_resolve_total{outcome="read_error"} 1`)
	assert.Contains(t, out, "buildchain_resolve_duration_seconds_count 1")
	assert.Contains(t, out, "buildchain_parse_failures_total 1")

	mfs, err := pr.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)
}

func TestPrometheusRecorder_UsesFreshRegistry_When_Nil(t *testing.T) {
	t.Parallel()

	a := NewPrometheusRecorder(nil)
	b := NewPrometheusRecorder(nil)
	a.IncLinks("m02")

	assert.Contains(t, scrape(t, a), `buildchain_links_total{job="m02"} 1`)
	assert.NotContains(t, scrape(t, b), `job="m02"`)
}

func TestPrometheusRecorder_WriteTextfile_ReturnsError_When_DirMissing(t *testing.T) {
	t.Parallel()

	pr := NewPrometheusRecorder(nil)
	err := pr.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}

func TestNoopRecorder_SatisfiesRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NoopRecorder{}
	r.IncLines()
	r.IncLinks("x")
	r.IncResolve(ResolveFiltered)
	r.ObserveResolveDuration(time.Second)
	r.IncParseFailures()
}
