package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/tvbatch/pkg/httputil"
)

// ErrNoTarget means no open page matched
var ErrNoTarget = errors.New("cdp: no matching page target")

// Target is one entry of the DevTools /json/list endpoint
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ListTargets fetches the open targets of the browser at debugURL
func ListTargets(ctx context.Context, client *httputil.Client, debugURL string) ([]Target, error) {
	resp, err := client.Get(ctx, strings.TrimRight(debugURL, "/")+"/json/list")
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list targets: unexpected status %d", resp.StatusCode)
	}

	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	return targets, nil
}

// FindPage returns the first page target whose URL contains match.
// An empty match accepts any page.
func FindPage(targets []Target, match string) (Target, error) {
	for _, t := range targets {
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			continue
		}
		if match == "" || strings.Contains(t.URL, match) {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q", ErrNoTarget, match)
}
