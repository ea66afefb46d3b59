// Package errors provides the classified error primitives used across mantree.
//
// Every pipeline stage reports failures as a ClassifiedError so the CLI can
// name the failing stage and pick an exit code without string matching.
//
//   - ErrorCategory: which concern failed (config, generator, structure, filesystem, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether a rerun could help
//   - ClassifiedError: structured error with category, severity and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages
//
// Example usage:
//
//	err := errors.GeneratorError("reference page generator failed").
//		WithContext("exit_code", 2).
//		WithContext("stderr", stderr).
//		WithCause(runErr).
//		Build()
package errors
