// Package batch sequences discovery, selection, configuration, refresh,
// metric reading and classification over every discovered item.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tvbatch/internal/classify"
	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/discovery"
	"github.com/wonny/tvbatch/internal/export"
	"github.com/wonny/tvbatch/internal/history"
	"github.com/wonny/tvbatch/internal/refresh"
	"github.com/wonny/tvbatch/internal/report"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/internal/selection"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/internal/telemetry"
	"github.com/wonny/tvbatch/internal/workflow"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Timing collects every fixed wait of a run
type Timing struct {
	ScrollSettle    time.Duration
	Selection       selection.Delays
	Workflow        workflow.Delays
	RefreshPoll     time.Duration
	AppearTimeout   time.Duration
	PostConfirmWait time.Duration
	PostRefresh     time.Duration
	// FinishTimeout bounds history and notification after the run context is gone
	FinishTimeout time.Duration
}

// DefaultTiming returns the production waits
func DefaultTiming() Timing {
	return Timing{
		ScrollSettle:    discovery.ScrollSettle,
		Selection:       selection.DefaultDelays(),
		Workflow:        workflow.DefaultDelays(),
		RefreshPoll:     refresh.PollInterval,
		AppearTimeout:   refresh.DefaultAppearTimeout,
		PostConfirmWait: refresh.DefaultPostConfirmWait,
		PostRefresh:     1500 * time.Millisecond,
		FinishTimeout:   10 * time.Second,
	}
}

// Deps are the collaborators of a Controller. Surface, Exporter and Logger are required.
type Deps struct {
	Surface   surface.Surface
	Selectors surface.Selectors
	Labels    report.Labels
	Exporter  export.Exporter
	History   history.Recorder
	Notifier  Notifier
	Metrics   *telemetry.Metrics
	Logger    *logger.Logger
	Timing    *Timing
}

// Status is a snapshot of the controller for the status endpoint
type Status struct {
	State     contracts.RunState `json:"state"`
	RunID     string             `json:"run_id,omitempty"`
	StartedAt time.Time          `json:"started_at,omitempty"`
	Index     int                `json:"index"`
	Total     int                `json:"total"`
	Symbol    string             `json:"symbol,omitempty"`
}

// Controller runs batches. At most one run is active per instance.
// ⭐ SSOT: 배치 실행 순서와 재진입 방지는 여기서만
type Controller struct {
	running atomic.Bool

	resolver     *discovery.Resolver
	selector     *selection.Controller
	configurator *workflow.Configurator
	syncer       *refresh.Synchronizer
	reader       *report.Reader
	remover      *classify.Remover

	exporter export.Exporter
	history  history.Recorder
	notifier Notifier
	metrics  *telemetry.Metrics
	logger   *logger.Logger
	timing   Timing

	mu     sync.Mutex
	status Status
}

// New wires a controller from its dependencies
func New(d Deps) *Controller {
	timing := DefaultTiming()
	if d.Timing != nil {
		timing = *d.Timing
	}
	if d.Notifier == nil {
		d.Notifier = NewLogNotifier(d.Logger)
	}
	if len(d.Labels.TotalPnL) == 0 {
		d.Labels = report.DefaultLabels()
	}

	s := d.Surface
	resolver := discovery.NewResolver(s, s, d.Selectors, d.Logger).WithSettle(timing.ScrollSettle)
	selector := selection.NewController(s, s, resolver, d.Logger).WithDelays(timing.Selection)

	return &Controller{
		resolver:     resolver,
		selector:     selector,
		configurator: workflow.NewConfigurator(s, d.Selectors, d.Logger).WithDelays(timing.Workflow),
		syncer:       refresh.NewSynchronizer(s, d.Logger).WithInterval(timing.RefreshPoll),
		reader:       report.NewReader(s, d.Selectors, d.Labels, d.Logger),
		remover:      classify.NewRemover(s, selector, d.Logger),
		exporter:     d.Exporter,
		history:      d.History,
		notifier:     d.Notifier,
		metrics:      d.Metrics,
		logger:       d.Logger,
		timing:       timing,
		status:       Status{State: contracts.RunIdle},
	}
}

// State returns Idle or Running
func (c *Controller) State() contracts.RunState {
	if c.running.Load() {
		return contracts.RunRunning
	}
	return contracts.RunIdle
}

// Status returns the current progress snapshot
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	st.State = c.State()
	return st
}

// Run executes one batch synchronously. A call while another run is active
// returns ErrRunInProgress without side effects. The returned error is set
// only when the run aborted (no source, cancellation, fault); delivery
// failures are reported through the summary status.
func (c *Controller) Run(ctx context.Context, cfg contracts.RunConfig) (*contracts.RunSummary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, contracts.ErrRunInProgress
	}
	defer c.running.Store(false)

	return c.run(ctx, cfg, uuid.NewString())
}

// Start begins a batch in the background and returns its run id as soon as
// it has started. ctx must outlive the run (not a request context).
func (c *Controller) Start(ctx context.Context, cfg contracts.RunConfig) (string, error) {
	if !c.running.CompareAndSwap(false, true) {
		return "", contracts.ErrRunInProgress
	}

	runID := uuid.NewString()
	c.setStatus(Status{RunID: runID, StartedAt: time.Now()})

	go func() {
		defer c.running.Store(false)
		_, _ = c.run(ctx, cfg, runID)
	}()

	return runID, nil
}

func (c *Controller) setStatus(st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = st
}

func (c *Controller) progress(index, total int, symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Index = index
	c.status.Total = total
	c.status.Symbol = symbol
}

// run is the body of Run/Start; the caller owns the running flag
func (c *Controller) run(ctx context.Context, cfg contracts.RunConfig, runID string) (summary *contracts.RunSummary, err error) {
	cfg = cfg.Normalized()
	log := c.logger.ForRun(runID)

	summary = &contracts.RunSummary{
		RunID:       runID,
		StartedAt:   time.Now(),
		Status:      contracts.RunCompleted,
		Destination: cfg.ExportDestination,
		Records:     []contracts.MetricRecord{},
	}
	if hash, hashErr := runconfig.Hash(cfg); hashErr == nil {
		summary.ConfigHash = hash
	}
	c.setStatus(Status{RunID: runID, StartedAt: summary.StartedAt})
	c.metrics.RunStarted()

	defer func() {
		if r := recover(); r != nil {
			summary.Status = contracts.RunFaulted
			summary.Error = fmt.Sprintf("panic: %v", r)
			err = fmt.Errorf("batch run faulted: %v", r)
			log.WithField("panic", r).Error("Batch run panicked")
		}
		summary.FinishedAt = time.Now()
		c.finish(summary, log)
	}()

	log.WithFields(map[string]interface{}{
		"strategy":    cfg.StrategyName,
		"timeframe":   cfg.Timeframe,
		"max_items":   cfg.MaxItems,
		"destination": cfg.ExportDestination,
	}).Info("Batch run started")

	res, err := c.resolver.Resolve(ctx, cfg)
	if err != nil {
		return summary, c.abort(summary, err)
	}
	if !res.Found() {
		summary.Status = contracts.RunNoSource
		summary.Error = contracts.ErrSourceNotFound.Error()
		log.Warn("No usable listing source")
		return summary, contracts.ErrSourceNotFound
	}

	summary.Source = res.Source
	summary.Items = res.Items
	log.WithFields(map[string]interface{}{
		"source": res.Source.String(),
		"items":  len(res.Items),
	}).Info("Items discovered")

	th := cfg.Thresholds()
	for i, id := range res.Items {
		c.progress(i+1, len(res.Items), id)

		out, itemErr := c.processItem(ctx, cfg, th, res.Source, i, len(res.Items), summary.Deleted, id, log)
		summary.Diagnostics = append(summary.Diagnostics, out.diag)
		c.metrics.ItemProcessed(out.diag.Verdict, out.diag.Duration)

		switch out.diag.Verdict {
		case contracts.VerdictKeep:
			summary.Kept++
			summary.Records = append(summary.Records, out.record)
		case contracts.VerdictDrop:
			summary.Dropped++
		default:
			summary.Neither++
		}
		if out.diag.Deleted {
			summary.Deleted++
		}

		if itemErr != nil {
			if ctx.Err() != nil {
				return summary, c.abort(summary, ctx.Err())
			}
			// surface transport faults degrade the item only
			summary.Diagnostics[len(summary.Diagnostics)-1].Error = itemErr.Error()
			log.WithError(itemErr).WithField("symbol", id).Warn("Item degraded by surface error")
		}
	}

	if err := c.exporter.Export(ctx, cfg.ExportDestination, summary.Records); err != nil {
		c.metrics.ExportFinished(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, c.abort(summary, ctxErr)
		}
		summary.Status = contracts.RunDeliveryFailed
		summary.Error = err.Error()
		return summary, nil
	}
	c.metrics.ExportFinished(nil)

	return summary, nil
}

// abort marks the summary for an error that stops the run
func (c *Controller) abort(summary *contracts.RunSummary, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		summary.Status = contracts.RunCancelled
	} else {
		summary.Status = contracts.RunFaulted
	}
	summary.Error = err.Error()
	return err
}

// finish records, notifies and updates metrics. It runs on its own context
// so a cancelled run still leaves a trace.
func (c *Controller) finish(summary *contracts.RunSummary, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timing.FinishTimeout)
	defer cancel()

	if c.history != nil {
		if err := c.history.Record(ctx, summary); err != nil {
			log.WithError(err).Error("Failed to record run history")
		}
	}

	c.notifier.Notify(ctx, summary)
	c.metrics.RunFinished(summary.Status, summary.Duration())
	c.setStatus(Status{RunID: summary.RunID, StartedAt: summary.StartedAt})
}
