package runconfig

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/redis"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     contracts.RunConfig
		wantErr string
	}{
		{"empty is valid", contracts.RunConfig{}, ""},
		{"good range", contracts.RunConfig{EvaluationFrom: "2024-01-01", EvaluationTo: "2024-06-30"}, ""},
		{"bad date", contracts.RunConfig{EvaluationFrom: "01/02/2024"}, "evaluationFrom"},
		{"reversed range", contracts.RunConfig{EvaluationFrom: "2024-06-30", EvaluationTo: "2024-01-01"}, "evaluationTo"},
		{"bad drop action", contracts.RunConfig{DropAction: "explode"}, "dropAction"},
		{"bad source kind", contracts.RunConfig{Sources: []contracts.ListingSource{{Kind: "csv"}}}, "sources[0].kind"},
		{"negative max items is defaulted later", contracts.RunConfig{MaxItems: -3}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestHash(t *testing.T) {
	a, err := Hash(contracts.RunConfig{})
	require.NoError(t, err)
	b, err := Hash(contracts.DefaultRunConfig())
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b, "defaults hash the same whether explicit or not")

	c, err := Hash(contracts.RunConfig{Timeframe: "1D"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestFileProvider_MissingFileGivesDefaults(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "tvbatch.yaml"))

	cfg, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultRunConfig(), cfg)
}

func TestFileProvider_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tvbatch.yaml")
	p := NewFileProvider(path)
	ctx := context.Background()

	in := contracts.RunConfig{
		StrategyName:            "MACD Cross v2",
		Timeframe:               "4h",
		MaxItems:                20,
		MinPrimaryMetricPercent: floatPtr(10),
		ExportDestination:       "https://example.com/backtest",
		DropAction:              contracts.DropMark,
	}
	require.NoError(t, p.Set(ctx, in))

	got, err := p.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "MACD Cross v2", got.StrategyName)
	assert.Equal(t, 20, got.MaxItems)
	assert.Equal(t, contracts.DefaultInterItemDelayMs, got.InterItemDelayMs)
	assert.Equal(t, 10.0, got.Thresholds().MinPrimaryPercent)
	assert.Equal(t, 1.2, got.Thresholds().MinSecondaryRatio)
	assert.Equal(t, contracts.DropMark, got.DropAction)
	assert.Equal(t, contracts.DefaultSources(), got.Sources)
}

func TestFileProvider_UnknownFieldFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvbatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy_name: x\nmax_itemz: 5\n"), 0o644))

	_, err := NewFileProvider(path).Get(context.Background())
	assert.Error(t, err)
}

func TestFileProvider_SelectorsOverrideAndSurviveSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvbatch.yaml")
	yamlDoc := `timeframe: 1D
selectors:
  row: ".symbol-NEWHASH"
  confirm_pattern: "(?i)apply"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	p := NewFileProvider(path)
	ctx := context.Background()

	sel, err := p.Selectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".symbol-NEWHASH", sel.Row)
	assert.Equal(t, "(?i)apply", sel.ConfirmPattern)
	assert.Equal(t, surface.DefaultSelectors().RatiosTable, sel.RatiosTable)

	require.NoError(t, p.Set(ctx, contracts.RunConfig{Timeframe: "4h"}))

	sel, err = p.Selectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".symbol-NEWHASH", sel.Row)
}

func TestFileProvider_SetRejectsInvalid(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "tvbatch.yaml"))
	err := p.Set(context.Background(), contracts.RunConfig{DropAction: "nope"})
	assert.Error(t, err)
}

func TestRedisProvider(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	p := NewRedisProvider(redis.NewFromClient(rdb), "tvbatch:settings")
	ctx := context.Background()

	mock.ExpectGet("tvbatch:settings").RedisNil()
	cfg, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultRunConfig(), cfg)

	in := contracts.RunConfig{StrategyName: "RSI Revert", MaxItems: 5}
	payload, err := json.Marshal(in)
	require.NoError(t, err)

	mock.ExpectSet("tvbatch:settings", payload, 0).SetVal("OK")
	require.NoError(t, p.Set(ctx, in))

	mock.ExpectGet("tvbatch:settings").SetVal(string(payload))
	cfg, err = p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RSI Revert", cfg.StrategyName)
	assert.Equal(t, 5, cfg.MaxItems)
	assert.Equal(t, contracts.DefaultExportDestination, cfg.ExportDestination)

	assert.NoError(t, mock.ExpectationsWereMet())
}
