// Package ctxpack flattens files and directories into a single text document
// for use as language model context. It honours .gitignore rules, drops
// binary files, estimates the token count of the result and flags
// credential-shaped strings in the included files.
//
// Scan is the entry point; the pieces it is built from (Resolve,
// ScanDirectory, Aggregate, CountTokens, ScanSecrets) are exported for
// callers that need only part of the pipeline.
package ctxpack
