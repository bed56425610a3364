package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tvbatch/internal/api"
	"github.com/wonny/tvbatch/internal/api/handlers"
	"github.com/wonny/tvbatch/internal/scheduler"
	"github.com/wonny/tvbatch/internal/scheduler/jobs"
	"github.com/wonny/tvbatch/internal/telemetry"
)

// serveCmd runs the HTTP control API with the optional batch schedule
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 배치 스케줄러 시작",
	Long: `HTTP 제어 API 서버를 시작합니다.
BATCH_SCHEDULE 이 설정되어 있으면 cron 스케줄로 배치를 실행합니다.

Endpoints:
  GET  /health            - Health check
  GET  /metrics           - Prometheus metrics
  GET  /api/config        - 실행 설정 조회
  PUT  /api/config        - 실행 설정 저장
  POST /api/runs          - 배치 시작 (body 생략 시 저장된 설정)
  GET  /api/runs/status   - 실행 상태
  GET  /api/runs/latest   - 마지막 실행 결과

Example:
  go run ./cmd/tvbatch serve
  go run ./cmd/tvbatch serve --port 8089`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본 PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== tvbatch API Server ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Config + logger + run config store
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	// 2. History (memory, + Postgres when configured)
	rec, err := a.history(ctx)
	if err != nil {
		return err
	}

	// 3. Attach to the browser page
	s, err := a.connect(ctx)
	if err != nil {
		return err
	}

	// 4. Batch controller
	metrics := telemetry.NewMetrics()
	ctrl := a.controller(s, rec, metrics)

	// 5. Scheduler
	sched := scheduler.New(a.log)
	if a.cfg.BatchSchedule != "" {
		job := jobs.NewBatchJob(ctrl, a.provider, a.cfg.BatchSchedule, a.log)
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule batch: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		if next, err := sched.NextRun(job.Name()); err == nil {
			a.log.WithField("next_run", next).Info("Batch scheduled")
		}
	}

	// 6. Router + server
	var metricsHandler http.Handler
	if a.cfg.MetricsEnabled {
		metricsHandler = metrics.Handler()
	}
	router := api.NewRouter(
		handlers.NewRunHandler(ctx, ctrl, a.provider, rec, a.log),
		handlers.NewConfigHandler(a.provider, a.log),
		metricsHandler,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Run blocks until ctx is cancelled, then shuts down gracefully
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
