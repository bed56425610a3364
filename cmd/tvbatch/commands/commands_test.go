package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
)

func TestReadRunConfig_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"strategyName":"MACD","maxItems":7,"dropAction":"mark"}`), 0o644))

	cfg, err := readRunConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "MACD", cfg.StrategyName)
	assert.Equal(t, 7, cfg.MaxItems)
	assert.Equal(t, contracts.DropMark, cfg.DropAction)

	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("strategy_name: RSI\ninter_item_delay_ms: 2500\n"), 0o644))

	cfg, err = readRunConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "RSI", cfg.StrategyName)
	assert.Equal(t, 2500, cfg.InterItemDelayMs)
}

func TestReadRunConfig_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"strategy":"MACD"}`), 0o644))
	_, err := readRunConfig(jsonPath)
	assert.Error(t, err)

	yamlPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("strategy: MACD\n"), 0o644))
	_, err = readRunConfig(yamlPath)
	assert.Error(t, err)
}

func TestApplyRunFlags(t *testing.T) {
	t.Cleanup(func() {
		runMaxItems, runDelayMs, runStrategy, runDestination, runMarkOnly = 0, 0, "", "", false
	})

	base := contracts.RunConfig{StrategyName: "stored", MaxItems: 50, ExportDestination: "out.csv"}

	assert.Equal(t, base, applyRunFlags(base))

	runMaxItems = 3
	runStrategy = "override"
	runDestination = "https://example.com/hook"
	runMarkOnly = true

	got := applyRunFlags(base)
	assert.Equal(t, 3, got.MaxItems)
	assert.Equal(t, "override", got.StrategyName)
	assert.Equal(t, "https://example.com/hook", got.ExportDestination)
	assert.Equal(t, contracts.DropMark, got.DropAction)
	assert.Equal(t, 0, got.InterItemDelayMs)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250_000_000))
	assert.Equal(t, "1.5s", FormatDuration(1_500_000_000))
	assert.Equal(t, "2m5s", FormatDuration(125_000_000_000))
}
