// Package github implements the repository host connector for GitHub.
//
// The connector creates repositories, reads their file trees, publishes
// generated file sets as single atomic commits through the git data
// API, and enables GitHub Pages hosting.
//
// # Architecture
//
// The connector implements the driven port pattern defined in
// [driven.RepositoryHost]. It comprises the following components:
//
//   - Client: handles GitHub API communication with rate limiting
//   - sync: repository creation, tree reads and atomic publishes
//   - pages: hosting enablement and public URL derivation
//
// # Authentication
//
// A classic or fine-grained Personal Access Token created at
// github.com/settings/tokens. Requires 'repo' scope to create
// repositories and push content, and 'pages' access for hosting.
// Authenticated users receive 5,000 API requests per hour.
//
// # Atomic Publishes
//
// A publish never leaves the default branch half-updated. The connector:
//
//  1. Resolves the branch tip commit and its tree
//  2. Creates blobs-in-tree entries layered on the tip tree
//  3. Creates one commit whose single parent is the previous tip
//  4. Force-moves the branch reference to the new commit
//
// The branch pointer update is the last observable step, so readers see
// either the old state or the fully new state. Empty repositories are
// bootstrapped with a placeholder file through the contents API first,
// since an empty repository has no tip to layer a tree on.
//
// # Rate Limiting
//
// The connector implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket algorithm limits requests to
//     approximately 1.2 requests per second, staying well under the
//     5,000/hour limit whilst maximising throughput.
//
//  2. Reactive handling: the connector monitors X-RateLimit-Remaining
//     and X-RateLimit-Reset headers. When limits are exhausted, it
//     waits until the reset time before continuing.
//
// # Error Handling
//
// The connector distinguishes between recoverable and fatal errors:
//
//   - Already-exists on create: recovered by returning the existing
//     repository
//   - Missing repositories: reported as [domain.ErrNotFound]
//   - Rate limit errors: reported as [RateLimitError]
//   - Any other ref/tree/commit failure: fatal to the publish call
package github
