// Package deploy provides the HTTP adapters that confirm a deployment:
// a prober that checks the published site answers, and a notifier that
// delivers the completion callback to the evaluator.
package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Ensure Prober implements the site prober port.
var _ driven.SiteProber = (*Prober)(nil)

// Prober checks whether a published site answers over plain GET.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a prober. A nil client gets the default timeout.
func NewProber(httpClient *http.Client) *Prober {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Prober{httpClient: httpClient}
}

// Probe issues one GET against the URL. Any transport failure or
// non-2xx status means the site is not reachable yet.
func (p *Prober) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe site: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused across polls.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("site returned status %d", resp.StatusCode)
	}

	return nil
}
