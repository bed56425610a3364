package batch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/tvbatch/internal/classify"
	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/settle"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// itemOutcome is what one pass of the item pipeline produced
type itemOutcome struct {
	diag   contracts.ItemDiagnostic
	record contracts.MetricRecord
}

// processItem runs select, configure, refresh, read and classify for one item.
// Failures other than cancellation degrade the diagnostic and never stop the
// batch. The error is set only when ctx is done.
//
// deletedSoFar shifts the ordinal of named-collection rows, since every
// deletion moves the remaining rows up by one.
func (c *Controller) processItem(
	ctx context.Context,
	cfg contracts.RunConfig,
	th contracts.Thresholds,
	src contracts.ListingSource,
	index, total, deletedSoFar int,
	id string,
	runLog *logger.Logger,
) (out itemOutcome, err error) {
	start := time.Now()
	log := runLog.ForItem(index, total, id)

	out.diag = contracts.ItemDiagnostic{
		Index:      index,
		Identifier: id,
		Thresholds: th,
		Verdict:    contracts.VerdictNeither,
		Primary:    contracts.Number(math.NaN()),
		Secondary:  contracts.Number(math.NaN()),
	}

	defer func() {
		if r := recover(); r != nil {
			out.diag.Error = fmt.Sprintf("panic: %v", r)
			out.diag.Verdict = contracts.VerdictNeither
			log.WithField("panic", r).Error("Item pipeline panicked")
		}
		out.diag.Duration = time.Since(start)
	}()

	// 1. 종목 선택
	var handle *surface.RowHandle
	if src.IsNamed() {
		res, selErr := c.selector.EnsureSelected(ctx, id, nil, index-deletedSoFar)
		out.diag.RowResolved = res.Resolved
		out.diag.Selected = res.Selected
		out.diag.SelectionPath = res.Path()
		c.metrics.SelectionFinished(res.Selected, len(res.Trace))
		if selErr != nil {
			return out, selErr
		}
		if res.Resolved {
			h := res.Handle
			handle = &h
		}
	} else {
		ok, swErr := c.configurator.SwitchSymbol(ctx, id)
		out.diag.RowResolved = ok
		out.diag.Selected = ok
		if swErr != nil {
			return out, swErr
		}
	}

	if !out.diag.Selected {
		out.diag.Error = contracts.ErrSelectionFailed.Error()
		log.WithField("path", out.diag.SelectionPath).Warn("Selection not verified, skipping item")
		return out, nil
	}

	// 2. 전략/기간 설정
	applied, err := c.configurator.Apply(ctx, cfg)
	out.diag.ConfigMissing = applied.Missing
	if err != nil {
		return out, err
	}
	if !applied.Complete() {
		log.WithError(applied.Err()).Warn("Configuration partially applied")
	}

	if err := settle.Wait(ctx, cfg.InterItemDelay()); err != nil {
		return out, err
	}

	// 3. 결과 화면 + 갱신 대기
	if _, err := c.configurator.OpenResults(ctx); err != nil {
		return out, err
	}

	refreshed, err := c.syncer.Wait(ctx, c.timing.AppearTimeout, c.timing.PostConfirmWait)
	out.diag.Refreshed = refreshed
	c.metrics.RefreshFinished(refreshed)
	if err != nil {
		return out, err
	}

	if err := settle.Wait(ctx, c.timing.PostRefresh); err != nil {
		return out, err
	}

	// 4. 지표 읽기 + 판정
	rec := c.reader.Read(ctx, id, src.GroupLabel)
	if rec.StrategyName == "" {
		rec.StrategyName = cfg.StrategyName
	}
	out.record = rec
	out.diag.PrimaryText = rec.PrimaryMetricText
	out.diag.SecondaryText = rec.SecondaryRatioText

	d := classify.Classify(rec, th)
	out.diag.Primary = contracts.Number(d.Primary)
	out.diag.Secondary = contracts.Number(d.Secondary)
	out.diag.Verdict = d.Verdict()

	log.WithFields(map[string]interface{}{
		"pnl":              rec.PrimaryMetricText,
		"sharpe":           rec.SecondaryRatioText,
		"parsed_pnl":       out.diag.Primary.String(),
		"parsed_sharpe":    out.diag.Secondary.String(),
		"threshold_pnl":    th.MinPrimaryPercent,
		"threshold_sharpe": th.MinSecondaryRatio,
		"verdict":          string(out.diag.Verdict),
	}).Info("Item classified")

	// 5. 기준 미달 종목 처리
	if d.Drop {
		deleted, err := c.remover.Drop(ctx, src, id, handle, index-deletedSoFar, cfg.DropAction)
		out.diag.Deleted = deleted
		if err != nil {
			return out, err
		}
	}

	return out, nil
}
