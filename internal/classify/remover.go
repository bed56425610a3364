package classify

import (
	"context"
	"errors"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/selection"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Selector re-verifies the active item before a destructive action
type Selector interface {
	EnsureSelected(ctx context.Context, id string, hint *surface.RowHandle, ordinal int) (selection.Result, error)
}

// Remover deletes dropped items from the named collection
type Remover struct {
	rows     surface.Rows
	selector Selector
	logger   *logger.Logger
}

// NewRemover creates a remover
func NewRemover(rows surface.Rows, selector Selector, log *logger.Logger) *Remover {
	return &Remover{
		rows:     rows,
		selector: selector,
		logger:   log,
	}
}

// Drop applies the drop side effect for id. It only acts on named-collection
// sources with a resolved handle and when action is DropDelete. Selection is
// re-verified first; a failed verification is logged and the row's own delete
// affordance is still used. A missing delete affordance is logged, not
// returned. The error is set only when ctx is done.
func (r *Remover) Drop(ctx context.Context, src contracts.ListingSource, id string, hint *surface.RowHandle, ordinal int, action contracts.DropAction) (bool, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"symbol": id,
		"source": src.String(),
	})

	if action == contracts.DropMark {
		log.Info("Below threshold, marked only")
		return false, nil
	}
	if !src.IsNamed() || hint == nil || hint.Identifier == "" {
		log.Debug("Drop skipped: no collection row to delete")
		return false, nil
	}

	res, err := r.selector.EnsureSelected(ctx, id, hint, ordinal)
	if err != nil {
		return false, err
	}
	if !res.Selected {
		// 삭제 버튼은 대상 행 안에 있으므로 선택 확인 실패와 무관하게 진행
		log.WithField("path", res.Path()).Warn("Selection not re-verified, deleting anyway")
	}

	target := res.Handle
	if target.Identifier == "" {
		target = *hint
	}

	if err := r.rows.RemoveRow(ctx, target); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(err, surface.ErrAbsent) {
			log.Warn("Delete affordance not found on row")
		} else {
			log.WithError(err).Warn("Delete failed")
		}
		return false, nil
	}

	log.Info("Removed from collection")
	return true, nil
}
