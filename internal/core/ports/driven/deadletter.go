package driven

import (
	"context"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// DeadLetterStore persists evaluation notifications whose delivery
// exhausted all retries, so they can be inspected and redelivered
// later instead of surviving only in logs.
type DeadLetterStore interface {
	// Save records a failed delivery.
	Save(ctx context.Context, letter domain.DeadLetter) error

	// List returns all recorded entries, newest first.
	List(ctx context.Context) ([]domain.DeadLetter, error)

	// Get fetches one entry by ID. Absent entries return
	// domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.DeadLetter, error)

	// Delete removes an entry by ID. Deleting an absent entry returns
	// domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying storage.
	Close() error
}
