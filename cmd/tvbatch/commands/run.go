package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/internal/telemetry"
)

// runCmd executes one batch in the foreground
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "배치 백테스트 1회 실행",
	Long: `관심 종목 목록을 수집하고 각 종목에 전략 백테스트를 실행합니다.

실행 순서:
  1. 종목 목록 수집 (관심 목록 → 테이블 순서)
  2. 종목별 선택 → 전략/기간 설정 → 결과 새로고침 → 지표 추출
  3. 기준 미달 종목 삭제 (또는 표시만)
  4. 결과 CSV/JSON/HTTP 전달

플래그는 저장된 실행 설정을 이번 실행에만 덮어씁니다.
Ctrl+C 로 중단하면 진행 중인 종목까지의 진단이 기록됩니다.

Example:
  go run ./cmd/tvbatch run
  go run ./cmd/tvbatch run --max-items 5 --mark-only
  go run ./cmd/tvbatch run --destination https://example.com/hook`,
	RunE: runBatch,
}

var (
	runMaxItems    int
	runDelayMs     int
	runStrategy    string
	runDestination string
	runMarkOnly    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runMaxItems, "max-items", 0, "최대 종목 수 (0 = 저장된 설정)")
	runCmd.Flags().IntVar(&runDelayMs, "delay-ms", 0, "종목 간 대기 ms (0 = 저장된 설정)")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "전략 이름")
	runCmd.Flags().StringVar(&runDestination, "destination", "", "결과 파일 경로 또는 http(s) URL")
	runCmd.Flags().BoolVar(&runMarkOnly, "mark-only", false, "기준 미달 종목을 삭제하지 않음")
}

// applyRunFlags overlays the command-line overrides on cfg
func applyRunFlags(cfg contracts.RunConfig) contracts.RunConfig {
	if runMaxItems > 0 {
		cfg.MaxItems = runMaxItems
	}
	if runDelayMs > 0 {
		cfg.InterItemDelayMs = runDelayMs
	}
	if runStrategy != "" {
		cfg.StrategyName = runStrategy
	}
	if runDestination != "" {
		cfg.ExportDestination = runDestination
	}
	if runMarkOnly {
		cfg.DropAction = contracts.DropMark
	}
	return cfg
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := a.provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}
	cfg := applyRunFlags(stored)
	if err := runconfig.Validate(cfg); err != nil {
		return err
	}
	cfg = cfg.Normalized()

	if verbose {
		PrintRunConfig(cfg)
	}

	rec, err := a.history(ctx)
	if err != nil {
		return err
	}
	s, err := a.connect(ctx)
	if err != nil {
		return err
	}

	ctrl := a.controller(s, rec, telemetry.NewMetrics())
	summary, runErr := ctrl.Run(ctx, cfg)
	if summary != nil {
		PrintSummary(summary)
	}

	switch {
	case runErr == nil && summary != nil && summary.Status == contracts.RunDeliveryFailed:
		PrintError("결과 전달 실패: " + summary.Error)
		return contracts.ErrDeliveryFailed
	case errors.Is(runErr, contracts.ErrSourceNotFound):
		PrintWarning("수집 가능한 종목 목록이 없습니다")
		return runErr
	case runErr != nil:
		PrintError(runErr.Error())
		return runErr
	}

	PrintSuccess(fmt.Sprintf("%d개 종목 처리 완료 → %s", len(summary.Items), summary.Destination))
	return nil
}
