package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/selector"
)

const header = "IP 地址,已发送,已接收,丢包率,平均延迟,下载速度 (MB/s)\n"

func writeReport(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0o644))
}

func testServer(t *testing.T, reg prometheus.Registerer) (*Server, string, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "result.csv")
	output := filepath.Join(dir, "best_ip.txt")

	writeReport(t, input,
		"1.1.1.1,4,4,0,5.0,0\n"+
			"104.16.0.1,4,4,0,3.0,0\n"+
			"8.8.8.8,4,4,0,1.0,0\n")

	srv, err := New(context.Background(), Config{
		Inputs: []string{input},
		Output: output,
		Selection: selector.Config{
			PriorityRegions: []region.Code{region.US},
			MaxPerRegion:    10,
			MaxTotal:        2,
		},
		Debounce: 10 * time.Millisecond,
	}, reg)
	require.NoError(t, err)

	return srv, input, output
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewValidates(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{
		Inputs:    []string{"result.csv"},
		Selection: selector.Config{MaxTotal: -1},
	}, nil)
	assert.ErrorIs(t, err, selector.ErrInvalidConfig)
}

func TestBeforeFirstSelection(t *testing.T) {
	srv, _, _ := testServer(t, nil)

	assert.Nil(t, srv.Current())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/best.txt").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/v1/selection").Code)
}

func TestReloadAndServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, _, output := testServer(t, reg)

	require.NoError(t, srv.Reload(context.Background()))

	snap := srv.Current()
	require.NotNil(t, snap)
	assert.NotEmpty(t, snap.RunID)

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/best.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "104.16.0.1\n8.8.8.8\n", rec.Body.String())
	assert.Equal(t, snap.RunID, rec.Header().Get("X-Run-Id"))

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "104.16.0.1\n8.8.8.8\n", string(b))

	rec = get(t, srv, "/api/v1/selection")
	require.Equal(t, http.StatusOK, rec.Code)

	var sel selectionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, snap.RunID, sel.RunID)
	assert.Equal(t, 3, sel.Records)
	assert.Equal(t, 2, sel.Config.MaxTotal)
	require.Len(t, sel.Picks, 2)
	assert.Equal(t, "104.16.0.1", sel.Picks[0].Address)
	assert.Equal(t, region.US, sel.Picks[0].Region)
	assert.Equal(t, 3.0, sel.Picks[0].Latency)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	picks := raw["picks"].([]any)
	assert.Equal(t, "priority", picks[0].(map[string]any)["pass"])
	assert.Equal(t, "backfill", picks[1].(map[string]any)["pass"])

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.Runs))
}

func TestReloadKeepsPrevious(t *testing.T) {
	srv, input, _ := testServer(t, nil)
	require.NoError(t, srv.Reload(context.Background()))
	before := srv.Current()

	require.NoError(t, os.Remove(input))
	assert.Error(t, srv.Reload(context.Background()))
	assert.Same(t, before, srv.Current())
}

func TestWatchReloads(t *testing.T) {
	srv, input, _ := testServer(t, nil)
	require.NoError(t, srv.Reload(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.watch(ctx)
	}()

	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)

	writeReport(t, input,
		"141.101.64.1,4,4,0,0.5,0\n"+
			"104.16.0.1,4,4,0,3.0,0\n")

	require.Eventually(t, func() bool {
		snap := srv.Current()
		return snap != nil && snap.Report.Len() == 2
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, []string{"104.16.0.1", "141.101.64.1"}, srv.Current().Result.Addresses())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
