// Package export delivers the batch result set to a file or a remote endpoint.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Exporter delivers records to destination. Errors wrap contracts.ErrDeliveryFailed.
type Exporter interface {
	Export(ctx context.Context, destination string, records []contracts.MetricRecord) error
}

// Router picks the exporter by destination: http(s) URLs are posted as JSON,
// anything else is a file path (.json for JSON, CSV otherwise)
// ⭐ SSOT: 결과 전달 경로 결정은 여기서만
type Router struct {
	remote Exporter
	file   Exporter
	logger *logger.Logger
}

// NewRouter creates a destination router
func NewRouter(remote, file Exporter, log *logger.Logger) *Router {
	return &Router{
		remote: remote,
		file:   file,
		logger: log,
	}
}

// IsRemote reports whether destination is an http(s) endpoint
func IsRemote(destination string) bool {
	d := strings.ToLower(strings.TrimSpace(destination))
	return strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://")
}

// Export implements Exporter
func (r *Router) Export(ctx context.Context, destination string, records []contracts.MetricRecord) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		destination = contracts.DefaultExportDestination
	}
	if records == nil {
		records = []contracts.MetricRecord{}
	}

	target := r.file
	kind := "file"
	if IsRemote(destination) {
		target = r.remote
		kind = "remote"
	}
	if target == nil {
		return fmt.Errorf("%w: no %s exporter configured", contracts.ErrDeliveryFailed, kind)
	}

	log := r.logger.WithFields(map[string]interface{}{
		"destination": destination,
		"kind":        kind,
		"records":     len(records),
	})

	if err := target.Export(ctx, destination, records); err != nil {
		log.WithError(err).Error("Export failed")
		return err
	}

	log.Info("Results exported")
	return nil
}
