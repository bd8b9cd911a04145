package domain

import (
	"fmt"
	"strings"
)

// BuildTask is an admitted build request. It is created once per inbound
// request, never mutated, and owned by the pipeline for the lifetime of
// one generate-publish-confirm run.
type BuildTask struct {
	// Task is the task identifier assigned by the evaluator.
	Task string

	// Email identifies the requester.
	Email string

	// Round is the build iteration, starting at 1.
	Round int

	// Nonce is an opaque request token echoed back in the notification.
	Nonce string

	// Brief is the natural-language description of the application.
	Brief string

	// Checks are the evaluator's acceptance criteria, in order.
	Checks []string

	// EvaluationURL is the endpoint notified when the run completes.
	EvaluationURL string

	// Attachments reference supporting files, in request order. They
	// are resolved to content inside the pipeline run, not at
	// admission.
	Attachments []AttachmentRef
}

// Validate checks that the task carries everything the pipeline needs.
func (t BuildTask) Validate() error {
	if t.Task == "" {
		return fmt.Errorf("%w: task is required", ErrInvalidInput)
	}
	if t.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !strings.Contains(t.Email, "@") {
		return fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
	}
	if t.Round < 1 {
		return fmt.Errorf("%w: round must be >= 1", ErrInvalidInput)
	}
	if t.Nonce == "" {
		return fmt.Errorf("%w: nonce is required", ErrInvalidInput)
	}
	if t.Brief == "" {
		return fmt.Errorf("%w: brief is required", ErrInvalidInput)
	}
	if t.EvaluationURL == "" {
		return fmt.Errorf("%w: evaluation_url is required", ErrInvalidInput)
	}
	return nil
}

// RepositoryName derives the target repository name from the task
// identifier and the local part of the requester's address. Dots and
// underscores are normalised to hyphens so the name is a valid
// repository slug.
func (t BuildTask) RepositoryName() string {
	local := t.Email
	if i := strings.Index(local, "@"); i >= 0 {
		local = local[:i]
	}
	name := t.Task + "-" + local
	name = strings.ReplaceAll(name, ".", "-")
	name = strings.ReplaceAll(name, "_", "-")
	return name
}

// Notification builds the completion payload for this task. Retries of
// the delivery resend this same payload unchanged.
func (t BuildTask) Notification(repoURL, commitSHA, pagesURL string) EvaluationNotification {
	return EvaluationNotification{
		Email:     t.Email,
		Task:      t.Task,
		Round:     t.Round,
		Nonce:     t.Nonce,
		RepoURL:   repoURL,
		CommitSHA: commitSHA,
		PagesURL:  pagesURL,
	}
}

// AttachmentRef names a supporting file by address. The URL may be a
// plain http(s) URL or a data URI.
type AttachmentRef struct {
	// Name is the file name supplied by the requester.
	Name string

	// URL locates the content.
	URL string
}

// Attachment is a supporting file resolved from the inbound request,
// ready for inclusion in a generation call. Consumed read-only.
type Attachment struct {
	// Name is the file name supplied by the requester.
	Name string

	// MIMEType is the declared or detected content type.
	MIMEType string

	// Content is the raw decoded bytes.
	Content []byte

	// Binary is false for text content that can be inlined into a
	// prompt verbatim.
	Binary bool
}

// IsImage returns true if the attachment should be sent to a provider
// as an inline image rather than as prompt text.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// EvaluationNotification is the completion callback payload. It mirrors
// the task identity plus the observable deployment outcome, and is sent
// exactly once per successful pipeline run.
type EvaluationNotification struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}
