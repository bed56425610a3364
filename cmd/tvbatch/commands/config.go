package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/runconfig"
)

// configCmd groups run configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "실행 설정 조회/변경",
	Long: `저장된 실행 설정(RUN_CONFIG_STORE)을 조회하거나 변경합니다.

Example:
  go run ./cmd/tvbatch config get
  go run ./cmd/tvbatch config get --json
  go run ./cmd/tvbatch config set settings.json`,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "현재 실행 설정 출력 (기본값 적용)",
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "JSON/YAML 파일의 실행 설정을 검증 후 저장",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSet,
}

var configJSON bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configGetCmd.Flags().BoolVar(&configJSON, "json", false, "JSON 형식으로 출력")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.provider.Get(ctx)
	if err != nil {
		return err
	}

	if configJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	PrintRunConfig(cfg)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := readRunConfig(args[0])
	if err != nil {
		return err
	}
	if err := runconfig.Validate(cfg); err != nil {
		return err
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.provider.Set(ctx, cfg); err != nil {
		return fmt.Errorf("save run config: %w", err)
	}

	PrintSuccess("실행 설정 저장 완료")
	PrintRunConfig(cfg.Normalized())
	return nil
}

// readRunConfig decodes path as JSON (camelCase keys) or YAML (snake_case keys)
func readRunConfig(path string) (contracts.RunConfig, error) {
	var cfg contracts.RunConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
