package domain

import "time"

// RepositoryRef identifies a repository on the hosting service. It is
// looked up or created per pipeline run and never cached across runs.
type RepositoryRef struct {
	// Owner is the account that owns the repository.
	Owner string

	// Name is the repository name.
	Name string

	// FullName is "owner/name" as reported by the host.
	FullName string

	// DefaultBranch is the branch published commits land on.
	DefaultBranch string

	// URL is the repository's browsable address.
	URL string
}

// CommitResult is the outcome of a successful publish. The SHA is only
// used downstream for reporting.
type CommitResult struct {
	// SHA is the identifier of the commit that now tips the branch.
	SHA string
}

// DeadLetter records an evaluation notification whose delivery
// exhausted all retries. Kept so failed callbacks can be inspected and
// redelivered instead of surviving only in logs.
type DeadLetter struct {
	// ID is the unique identifier for the entry.
	ID string

	// Endpoint is the evaluator URL the payload was destined for.
	Endpoint string

	// Payload is the serialised EvaluationNotification.
	Payload []byte

	// Attempts is how many deliveries were made before giving up.
	Attempts int

	// LastError describes the final delivery failure.
	LastError string

	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time
}
