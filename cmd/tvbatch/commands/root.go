package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	runConfigPath string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tvbatch",
	Short: "tvbatch - 전략 백테스트 배치 실행기",
	Long: `tvbatch Unified CLI

브라우저에 열린 차트 페이지를 DevTools 프로토콜로 조작하여
관심 종목 목록 전체에 같은 전략 백테스트를 순차 실행합니다.
결과는 CSV/JSON 파일 또는 HTTP 엔드포인트로 전달됩니다.

Usage:
  go run ./cmd/tvbatch [command]

Examples:
  go run ./cmd/tvbatch run
  go run ./cmd/tvbatch run --max-items 10 --destination out.json
  go run ./cmd/tvbatch discover
  go run ./cmd/tvbatch serve --port 8089
  go run ./cmd/tvbatch config get`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&runConfigPath, "run-config", "", "run config file (default RUN_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
