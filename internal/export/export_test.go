package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/pkg/config"
	"github.com/wonny/tvbatch/pkg/httputil"
	"github.com/wonny/tvbatch/pkg/logger"
)

func sampleRecords() []contracts.MetricRecord {
	return []contracts.MetricRecord{
		{
			Identifier:         "AAPL",
			GroupLabel:         "US",
			StrategyName:       "MACD Cross v2",
			PrimaryMetricText:  "+23.45%",
			DrawdownText:       "5.12%",
			TradeCountText:     "87",
			WinRateText:        "54.02%",
			ProfitFactorText:   "1.874",
			SecondaryRatioText: "1.52",
		},
		{Identifier: "MSFT", GroupLabel: "US", PrimaryMetricText: "+15.00%", SecondaryRatioText: "1.3"},
	}
}

func newRouter(t *testing.T, dir string) *Router {
	t.Helper()
	client := httputil.New(&config.Config{}, logger.Nop()).WithRetry(1, time.Millisecond)
	return NewRouter(NewRemote(client), NewFile(dir), logger.Nop())
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		dest string
		want bool
	}{
		{"https://example.com/backtest", true},
		{"HTTP://example.com", true},
		{"results.csv", false},
		{"/tmp/http/results.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemote(tt.dest))
		})
	}
}

func TestExport_RemotePostsJSONArray(t *testing.T) {
	var got []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newRouter(t, t.TempDir()).Export(context.Background(), server.URL, sampleRecords())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0]["symbol"])
	assert.Equal(t, "US", got[0]["market"])
	assert.Equal(t, "+23.45%", got[0]["totalPnL"])
	assert.Equal(t, "1.52", got[0]["sharpeRatio"])
	assert.Equal(t, "MSFT", got[1]["symbol"])
}

func TestExport_RemoteEmptySetIsArray(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer server.Close()

	require.NoError(t, newRouter(t, t.TempDir()).Export(context.Background(), server.URL, nil))
	assert.Equal(t, "[]", body)
}

func TestExport_RemoteFailureWrapsDeliveryFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	err := newRouter(t, t.TempDir()).Export(context.Background(), server.URL, sampleRecords())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "400")
}

func TestExport_CSVFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, newRouter(t, dir).Export(context.Background(), "out/results.csv", sampleRecords()))

	f, err := os.Open(filepath.Join(dir, "out", "results.csv"))
	require.NoError(t, err)
	defer f.Close()

	var back []contracts.MetricRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &back))
	assert.Equal(t, sampleRecords(), back)
}

func TestExport_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	require.NoError(t, newRouter(t, "").Export(context.Background(), path, sampleRecords()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var back []contracts.MetricRecord
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, sampleRecords(), back)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestExport_DefaultDestination(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, newRouter(t, dir).Export(context.Background(), "  ", sampleRecords()))
	_, err := os.Stat(filepath.Join(dir, contracts.DefaultExportDestination))
	assert.NoError(t, err)
}
