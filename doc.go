// Package pit is the Composition Root for the pit prompt tracker.
//
// It connects the version-history core (Domain Layer) with the storage
// adapters (Persistence Layer), so callers open a project directory and
// get a fully wired tracker back.
//
// Philosophy:
//
// Pit is "version control for prompts". It treats every prompt as an
// artifact with a linear, append-only history of immutable versions,
// and layers prompt-aware tooling on top: semantic diffs by category,
// a boolean query language over history, regression bisection, and a
// safety scanner. The core is storage-agnostic; the default adapter is
// SQLite, with an in-memory adapter for tests.
//
// Features:
//
//   - **Content-addressable storage**: identical content is stored once,
//     keyed by SHA-256 fingerprint.
//   - **Linear history**: per-artifact sequences with tags and HEAD,
//     never rewritten.
//   - **Semantic diff**: changes classified into tone, constraints,
//     examples, structure, variables and context.
//   - **Merge resolution**: category-level auto-merge with explicit
//     conflicts, never silent text merging.
//   - **Query language**: `success_rate > 0.9 AND tags contains 'production'`.
//   - **Bisect**: binary search over history to find the first bad version.
//   - **Pluggable storage**: SQLite by default, memory for tests, or any
//     `core.Store` via `WithStore`.
//
// Usage:
//
//	// Initialize a project with functional options
//	project, err := pit.Init("./my-prompts",
//		pit.WithLogger(logger),
//	)
//
//	// Commit a prompt version
//	v, err := project.Tracker.Commit(ctx, "summarizer", content, "tighten tone", "alice")
package pit
