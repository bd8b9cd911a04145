package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Ensure Notifier implements the evaluation notifier port.
var _ driven.EvaluationNotifier = (*Notifier)(nil)

// Notifier delivers completion callbacks to the evaluator as JSON
// POSTs. One call is one delivery attempt; the retry schedule lives in
// the deployment confirmer.
type Notifier struct {
	httpClient *http.Client
}

// NewNotifier creates a notifier. A nil client gets the default timeout.
func NewNotifier(httpClient *http.Client) *Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Notifier{httpClient: httpClient}
}

// Notify POSTs the notification to the endpoint once.
func (n *Notifier) Notify(ctx context.Context, endpoint string, notification domain.EvaluationNotification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify evaluator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("evaluator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return nil
}
