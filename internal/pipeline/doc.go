// Package pipeline provides a framework for executing restructuring phases
// in sequence.
//
// The pipeline pattern is used to process a site export through multiple
// stages: planning the path mapping, moving files, rewriting references,
// and validating the result. Each stage is implemented as a Step that
// receives the current run report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running runs
// 4. Commands compose different subsets of steps (plan-only, validate-only)
//
// The rewrite phase processes documents concurrently with concurrency
// control using errgroup.
package pipeline
