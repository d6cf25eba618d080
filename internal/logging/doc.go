// Package logging provides leveled logging with environment-based
// configuration and the tree-indented progress stream used by the walker.
//
// Log levels are controlled via environment variables:
//   - DEBUG=true or LOG_LEVEL=debug enables debug output
//   - LOG_LEVEL=info|warn|error selects the minimum level (default: info)
//
// The Event function emits one line per notable scan event in the form
// "  |  |--[category]     subject", indented to the current walk depth.
// Indentation is suppressed when stderr is not a terminal (override with
// LOG_TREE=true/false).
package logging
