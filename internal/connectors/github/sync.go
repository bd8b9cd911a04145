package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

const (
	// DefaultBranch is assumed when the host reports none.
	DefaultBranch = "main"

	// blobMode is the tree entry mode for regular files.
	blobMode = "100644"

	// Bootstrap placeholder written through the contents API to force
	// branch creation on an empty repository.
	bootstrapPath    = ".init"
	bootstrapMessage = "Initialize repository"
	bootstrapContent = "Initialized by application"

	// commitMessageFormat records the round number on each publish.
	commitMessageFormat = "Deploy application - Round %d"
)

// Ensure creates the repository if absent and returns its ref. When the
// repository already exists the existing one is returned.
func (c *Client) Ensure(ctx context.Context, name, description string) (*domain.RepositoryRef, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repo, resp, err := c.gh.Repositories.Create(ctx, "", &gh.Repository{
		Name:        gh.Ptr(name),
		Description: gh.Ptr(description),
		Private:     gh.Ptr(false),
		AutoInit:    gh.Ptr(false),
	})
	if err != nil {
		wrapped := c.wrapError(err, "create repository")
		if IsAlreadyExists(wrapped) {
			return c.Get(ctx, name)
		}
		return nil, wrapped
	}

	c.updateRateLimitFromResponse(resp)
	return c.repoRef(repo), nil
}

// Get fetches a repository by name under the configured account.
// Absent repositories return domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, name string) (*domain.RepositoryRef, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repo, resp, err := c.gh.Repositories.Get(ctx, c.username, name)
	if err != nil {
		wrapped := c.wrapError(err, "get repository")
		if IsNotFound(wrapped) {
			return nil, fmt.Errorf("repository %s: %w", name, domain.ErrNotFound)
		}
		return nil, wrapped
	}

	c.updateRateLimitFromResponse(resp)
	return c.repoRef(repo), nil
}

// Files fetches the full file tree of the default branch. A repository
// with no commits yet yields an empty set. Blobs that cannot be read
// are skipped rather than failing the whole read.
func (c *Client) Files(ctx context.Context, ref *domain.RepositoryRef) (domain.FileSet, error) {
	files := domain.FileSet{}

	tip, err := c.branchTip(ctx, ref, c.branchOf(ref))
	if err != nil {
		if isMissingTip(err) {
			return files, nil
		}
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, ref.Owner, ref.Name, tip.GetTree().GetSHA(), true)
	if err != nil {
		return nil, c.wrapError(err, "get tree")
	}
	c.updateRateLimitFromResponse(resp)

	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		content, err := c.blobContent(ctx, ref, entry.GetSHA())
		if err != nil {
			continue
		}
		files[entry.GetPath()] = content
	}

	return files, nil
}

// Publish lands the file set as one atomic commit on the default
// branch and returns the new tip. The reserved round pseudo-key is
// consumed for the commit message and never committed as a path.
func (c *Client) Publish(ctx context.Context, ref *domain.RepositoryRef, files domain.FileSet) (*domain.CommitResult, error) {
	branch := c.branchOf(ref)
	message := fmt.Sprintf(commitMessageFormat, files.Round())

	entries := make([]*gh.TreeEntry, 0, len(files))
	for _, path := range files.Paths() {
		entries = append(entries, &gh.TreeEntry{
			Path:    gh.Ptr(path),
			Mode:    gh.Ptr(blobMode),
			Type:    gh.Ptr("blob"),
			Content: gh.Ptr(files[path]),
		})
	}

	// Resolve the branch tip; an empty repository has none and must be
	// bootstrapped through the contents API before trees can be layered.
	tip, err := c.branchTip(ctx, ref, branch)
	if err != nil {
		if !isMissingTip(err) {
			return nil, err
		}
		if err := c.bootstrap(ctx, ref, branch); err != nil {
			return nil, err
		}
		tip, err = c.branchTip(ctx, ref, branch)
		if err != nil {
			return nil, err
		}
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// Layer the new entries on the tip tree: unmentioned paths are
	// inherited unchanged, which is what makes the commit atomic.
	newTree, resp, err := c.gh.Git.CreateTree(ctx, ref.Owner, ref.Name, tip.GetTree().GetSHA(), entries)
	if err != nil {
		return nil, c.wrapError(err, "create tree")
	}
	c.updateRateLimitFromResponse(resp)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	commit, resp, err := c.gh.Git.CreateCommit(ctx, ref.Owner, ref.Name, gh.Commit{
		Message: gh.Ptr(message),
		Tree:    newTree,
		Parents: []*gh.Commit{{SHA: tip.SHA}},
	}, nil)
	if err != nil {
		return nil, c.wrapError(err, "create commit")
	}
	c.updateRateLimitFromResponse(resp)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// Moving the branch pointer is the last observable step; readers
	// see either the old tree or the complete new one.
	_, resp, err = c.gh.Git.UpdateRef(ctx, ref.Owner, ref.Name, "refs/heads/"+branch, gh.UpdateRef{
		SHA:   commit.GetSHA(),
		Force: gh.Ptr(true),
	})
	if err != nil {
		return nil, c.wrapError(err, "update ref")
	}
	c.updateRateLimitFromResponse(resp)

	return &domain.CommitResult{SHA: commit.GetSHA()}, nil
}

// branchTip resolves the current tip commit of a branch.
func (c *Client) branchTip(ctx context.Context, ref *domain.RepositoryRef, branch string) (*gh.Commit, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	gitRef, resp, err := c.gh.Git.GetRef(ctx, ref.Owner, ref.Name, "heads/"+branch)
	if err != nil {
		return nil, c.wrapError(err, "get ref")
	}
	c.updateRateLimitFromResponse(resp)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	commit, resp, err := c.gh.Git.GetCommit(ctx, ref.Owner, ref.Name, gitRef.GetObject().GetSHA())
	if err != nil {
		return nil, c.wrapError(err, "get commit")
	}
	c.updateRateLimitFromResponse(resp)

	return commit, nil
}

// bootstrap writes a placeholder file through the contents API to
// force branch creation. Idempotent: failing because the repository is
// already non-empty is fine, the caller re-resolves the tip either way.
func (c *Client) bootstrap(ctx context.Context, ref *domain.RepositoryRef, branch string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Repositories.CreateFile(ctx, ref.Owner, ref.Name, bootstrapPath, &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(bootstrapMessage),
		Content: []byte(bootstrapContent),
		Branch:  gh.Ptr(branch),
	})
	if err != nil {
		wrapped := c.wrapError(err, "initialise repository")
		if IsAlreadyExists(wrapped) {
			return nil
		}
		return wrapped
	}

	c.updateRateLimitFromResponse(resp)
	return nil
}

// blobContent fetches and decodes one blob.
func (c *Client) blobContent(ctx context.Context, ref *domain.RepositoryRef, sha string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := c.gh.Git.GetBlob(ctx, ref.Owner, ref.Name, sha)
	if err != nil {
		return "", c.wrapError(err, "get blob")
	}
	c.updateRateLimitFromResponse(resp)

	if blob.GetEncoding() == "base64" {
		// The API wraps base64 content in newlines.
		cleaned := strings.ReplaceAll(blob.GetContent(), "\n", "")
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return "", fmt.Errorf("decode blob: %w", err)
		}
		return string(decoded), nil
	}

	return blob.GetContent(), nil
}

// branchOf returns the ref's branch, defaulting when the host reported
// none.
func (c *Client) branchOf(ref *domain.RepositoryRef) string {
	if ref.DefaultBranch != "" {
		return ref.DefaultBranch
	}
	return DefaultBranch
}

// repoRef converts an API repository to the domain ref.
func (c *Client) repoRef(repo *gh.Repository) *domain.RepositoryRef {
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = c.username
	}
	fullName := repo.GetFullName()
	if fullName == "" {
		fullName = owner + "/" + repo.GetName()
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = DefaultBranch
	}
	url := repo.GetHTMLURL()
	if url == "" {
		url = "https://github.com/" + fullName
	}
	return &domain.RepositoryRef{
		Owner:         owner,
		Name:          repo.GetName(),
		FullName:      fullName,
		DefaultBranch: branch,
		URL:           url,
	}
}

// isMissingTip reports whether a ref resolution failure means the
// branch has no commits yet. GitHub answers 404 for a missing branch
// and 409 for a repository with no git data at all.
func isMissingTip(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.StatusCode == 409
	}
	return errors.Is(err, ErrBranchNotFound)
}
