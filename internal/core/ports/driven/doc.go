// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - GenerationProvider: Services a single generation call (one per backend)
//   - RepositoryHost: Repository creation, file reads and atomic publishes
//   - SiteProber: Reachability checks against the public site URL
//   - EvaluationNotifier: Delivery of the completion callback
//   - AttachmentResolver: Fetches and decodes request attachments
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DeadLetterStore: Persists notifications whose delivery exhausted
//     retries. Without it, failed callbacks survive only in logs.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
