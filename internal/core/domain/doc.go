// Package domain defines the core business entities for AIDeployer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - BuildTask: A validated, admitted build request
//   - FileSet: Generated file contents keyed by repository path
//   - RepositoryRef: The identity of a hosted git repository
//   - EvaluationNotification: The completion callback payload
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
