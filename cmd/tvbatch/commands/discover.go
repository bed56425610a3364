package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tvbatch/internal/discovery"
)

// discoverCmd lists the items a run would process without touching them
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "처리 대상 종목 목록만 조회",
	Long: `실행 설정의 목록 소스를 순서대로 탐색하여 처리 대상 종목을 출력합니다.
종목 선택, 백테스트, 삭제는 수행하지 않습니다.

Example:
  go run ./cmd/tvbatch discover
  go run ./cmd/tvbatch discover --max-items 200`,
	RunE: runDiscover,
}

var discoverMaxItems int

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVar(&discoverMaxItems, "max-items", 0, "최대 종목 수 (0 = 저장된 설정)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}
	if discoverMaxItems > 0 {
		cfg.MaxItems = discoverMaxItems
	}
	cfg = cfg.Normalized()

	s, err := a.connect(ctx)
	if err != nil {
		return err
	}

	res, err := discovery.NewResolver(s, s, a.selectors, a.log).Resolve(ctx, cfg)
	if err != nil {
		return err
	}
	if !res.Found() {
		PrintWarning("수집 가능한 종목 목록이 없습니다")
		return nil
	}

	PrintHeader(fmt.Sprintf("📋 %s (%d)", res.Source.String(), len(res.Items)))
	for i, id := range res.Items {
		fmt.Printf("  %3d  %s\n", i+1, id)
	}
	PrintSeparator()
	return nil
}
