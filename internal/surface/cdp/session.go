package cdp

import (
	"context"
	"fmt"

	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/config"
	"github.com/wonny/tvbatch/pkg/httputil"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Open finds the page matching cfg.PageMatch, connects to it and returns a
// ready surface. The caller closes the returned Conn.
func Open(ctx context.Context, cfg config.SurfaceConfig, client *httputil.Client, sel surface.Selectors, log *logger.Logger) (*Surface, *Conn, error) {
	targets, err := ListTargets(ctx, client, cfg.DebugURL)
	if err != nil {
		return nil, nil, err
	}

	page, err := FindPage(targets, cfg.PageMatch)
	if err != nil {
		return nil, nil, err
	}

	conn, err := Dial(ctx, page.WebSocketDebuggerURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", page.URL, err)
	}

	s := New(conn, sel, cfg.CallTimeout, log)
	if err := s.call(ctx, "Page.bringToFront", nil, nil); err != nil {
		log.WithError(err).Debug("Page.bringToFront failed")
	}

	log.WithFields(map[string]interface{}{
		"title": page.Title,
		"url":   page.URL,
	}).Info("Attached to page")

	return s, conn, nil
}
