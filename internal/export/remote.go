package export

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/pkg/httputil"
)

// Remote posts the records as a JSON array
type Remote struct {
	client *httputil.Client
}

// NewRemote creates a remote exporter
func NewRemote(client *httputil.Client) *Remote {
	return &Remote{client: client}
}

// Export implements Exporter
func (r *Remote) Export(ctx context.Context, destination string, records []contracts.MetricRecord) error {
	resp, err := r.client.PostJSON(ctx, destination, records)
	if err != nil {
		return fmt.Errorf("%w: post %s: %v", contracts.ErrDeliveryFailed, destination, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", contracts.ErrDeliveryFailed, destination, resp.StatusCode, body)
	}
	return nil
}
