// Package runconfig stores and validates the per-run configuration.
package runconfig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
)

// Provider supplies and persists the run configuration
// ⭐ SSOT: 실행 설정 읽기/쓰기는 Provider를 통해서만
type Provider interface {
	// Get returns the stored configuration with defaults applied
	Get(ctx context.Context) (contracts.RunConfig, error)
	// Set validates and stores cfg
	Set(ctx context.Context, cfg contracts.RunConfig) error
}

// SelectorSource is implemented by providers that can override site selectors
type SelectorSource interface {
	Selectors(ctx context.Context) (surface.Selectors, error)
}

// ValidationError is a rejected field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const dateLayout = "2006-01-02"

// Validate checks values that cannot be defaulted. Missing numbers are fine;
// Normalized fills them in.
func Validate(cfg contracts.RunConfig) error {
	var from, to time.Time
	var err error

	if cfg.EvaluationFrom != "" {
		if from, err = time.Parse(dateLayout, cfg.EvaluationFrom); err != nil {
			return ValidationError{"evaluationFrom", "must be YYYY-MM-DD"}
		}
	}
	if cfg.EvaluationTo != "" {
		if to, err = time.Parse(dateLayout, cfg.EvaluationTo); err != nil {
			return ValidationError{"evaluationTo", "must be YYYY-MM-DD"}
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return ValidationError{"evaluationTo", "must not be before evaluationFrom"}
	}

	switch cfg.DropAction {
	case "", contracts.DropDelete, contracts.DropMark:
	default:
		return ValidationError{"dropAction", "must be delete or mark"}
	}

	for i, src := range cfg.Sources {
		switch src.Kind {
		case contracts.SourceNamedCollection, contracts.SourceTabular:
		default:
			return ValidationError{fmt.Sprintf("sources[%d].kind", i), "must be named_collection or tabular"}
		}
	}

	return nil
}

// Hash returns a SHA256 of the normalized configuration (canonical JSON)
func Hash(cfg contracts.RunConfig) (string, error) {
	jsonBytes, err := json.Marshal(cfg.Normalized())
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
