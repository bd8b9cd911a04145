package driven

import (
	"context"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// SiteProber performs a single reachability check against a public
// site URL. Poll loops and wait budgets live in the caller.
type SiteProber interface {
	// Probe issues one GET against the URL. A nil return means the
	// site answered with a success status; any error means "not yet
	// reachable", whether a transport failure or a non-success status.
	Probe(ctx context.Context, url string) error
}

// EvaluationNotifier delivers the completion callback to the evaluator.
// One call is one delivery attempt; the retry schedule lives in the
// caller.
type EvaluationNotifier interface {
	// Notify POSTs the payload to the endpoint. Any non-2xx status or
	// transport failure is an error.
	Notify(ctx context.Context, endpoint string, n domain.EvaluationNotification) error
}

// AttachmentResolver fetches and decodes request attachments into
// content records ready for generation.
type AttachmentResolver interface {
	// Resolve materialises every reference, preserving order. A
	// reference that cannot be fetched or decoded fails the whole
	// resolution.
	Resolve(ctx context.Context, refs []domain.AttachmentRef) ([]domain.Attachment, error)
}
