package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// pagesBranch is preferred as the Pages source when it exists.
const pagesBranch = "gh-pages"

// EnablePages switches on GitHub Pages for the repository, serving
// from the branch root. An already-enabled site counts as success.
func (c *Client) EnablePages(ctx context.Context, ref *domain.RepositoryRef) error {
	branch := c.branchOf(ref)
	if c.branchExists(ctx, ref, pagesBranch) {
		branch = pagesBranch
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Repositories.EnablePages(ctx, ref.Owner, ref.Name, &gh.Pages{
		Source: &gh.PagesSource{
			Branch: gh.Ptr(branch),
			Path:   gh.Ptr("/"),
		},
	})
	if err != nil {
		wrapped := c.wrapError(err, "enable pages")
		if IsAlreadyExists(wrapped) {
			return nil
		}
		return wrapped
	}

	c.updateRateLimitFromResponse(resp)
	return nil
}

// PagesURL returns the public Pages address for the repository. The
// address is derived, not read back from the API, so it is available
// before the site finishes provisioning.
func (c *Client) PagesURL(ref *domain.RepositoryRef) string {
	return fmt.Sprintf("https://%s.github.io/%s/", c.username, ref.Name)
}

// branchExists reports whether the branch has a resolvable ref.
func (c *Client) branchExists(ctx context.Context, ref *domain.RepositoryRef, branch string) bool {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return false
	}

	_, resp, err := c.gh.Git.GetRef(ctx, ref.Owner, ref.Name, "heads/"+branch)
	if err != nil {
		return false
	}

	c.updateRateLimitFromResponse(resp)
	return true
}
