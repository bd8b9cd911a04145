package driven

import (
	"context"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// RepositoryHost is the version-control service repositories are
// published to. Implementations are safe for concurrent use; refs are
// looked up fresh per call and never cached across pipeline runs.
type RepositoryHost interface {
	// Ensure creates the repository if absent and returns its ref.
	// Idempotent: when the repository already exists the existing ref
	// is returned, never an error.
	Ensure(ctx context.Context, name, description string) (*domain.RepositoryRef, error)

	// Get fetches a repository by name. Absent repositories return
	// domain.ErrNotFound, distinct from other failures.
	Get(ctx context.Context, name string) (*domain.RepositoryRef, error)

	// Files fetches the full file tree of the default branch,
	// directories expanded recursively.
	Files(ctx context.Context, ref *domain.RepositoryRef) (domain.FileSet, error)

	// Publish lands the file set as one atomic commit on the default
	// branch: an external reader observes either the prior tree or the
	// complete new tree, never a partial set. The reserved round
	// pseudo-key is consumed for the commit message and excluded from
	// the committed tree. Handles the empty-repository bootstrap case.
	Publish(ctx context.Context, ref *domain.RepositoryRef, files domain.FileSet) (*domain.CommitResult, error)

	// EnablePages switches on static hosting for the repository,
	// preferring a dedicated publish branch when one exists. Already
	// enabled is success, not an error.
	EnablePages(ctx context.Context, ref *domain.RepositoryRef) error

	// PagesURL computes the public site URL from account and
	// repository name. Deterministic; independent of whether hosting
	// enablement succeeded.
	PagesURL(ref *domain.RepositoryRef) string
}
