// Package pagesource runs the external reference page generator and reads the
// flat pages it leaves in the staging directory.
package pagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
)

// Result is the outcome of one generator invocation. Generate never returns a
// Go error directly; callers decide whether a failed Result aborts the build.
type Result struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the process could not start or exited non-zero.
	Err error
}

// OK reports whether the generator ran and exited with status 0.
func (r Result) OK() bool { return r.Err == nil && r.ExitCode == 0 }

// AsError converts a failed Result into a classified generator error.
func (r Result) AsError() error {
	if r.OK() {
		return nil
	}
	b := ferrors.GeneratorError("reference page generator failed").
		WithCause(r.Err).
		WithContext("command", strings.Join(r.Command, " ")).
		WithContext("exit_code", r.ExitCode)
	if r.Stderr != "" {
		b = b.WithContext("stderr", r.Stderr)
	}
	return b.Build()
}

// Generator produces flat reference pages into outputDir.
type Generator interface {
	Generate(ctx context.Context, outputDir string) Result
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, outputDir string) Result

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, outputDir string) Result { return f(ctx, outputDir) }

// BinaryGenerator invokes an external binary as
// "<Command> <Subcommand> <outputDir> --format=<Format>".
type BinaryGenerator struct {
	Command    string
	Subcommand string
	Format     string
}

// Generate runs the binary synchronously and waits for it to exit. There is
// no timeout; only the exit status is inspected, not partial output.
func (g *BinaryGenerator) Generate(ctx context.Context, outputDir string) Result {
	args := make([]string, 0, 3)
	if g.Subcommand != "" {
		args = append(args, g.Subcommand)
	}
	args = append(args, outputDir)
	if g.Format != "" {
		args = append(args, "--format="+g.Format)
	}
	res := Result{Command: append([]string{g.Command}, args...)}

	bin, err := checkExecutable(g.Command)
	if err != nil {
		res.ExitCode = -1
		res.Err = err
		return res
	}

	// #nosec G204 - command comes from the build configuration
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking reference page generator", logfields.Command(strings.Join(res.Command, " ")))

	runErr := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if res.Stderr != "" {
		slog.Debug("generator stderr", "error_output", res.Stderr)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("%w: %w", ErrGeneratorFailed, runErr)
		} else {
			res.ExitCode = -1
			res.Err = fmt.Errorf("%w: %w", ErrGeneratorNotExecutable, runErr)
		}
	}
	return res
}

// checkExecutable resolves command via PATH (bare names) or directly (paths)
// and verifies it is an executable regular file.
func checkExecutable(command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("%w: no command configured", ErrGeneratorNotFound)
	}
	if !strings.ContainsRune(command, filepath.Separator) {
		bin, err := exec.LookPath(command)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneratorNotFound, err)
		}
		return bin, nil
	}
	info, err := os.Stat(command)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneratorNotFound, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%w: %s", ErrGeneratorNotExecutable, command)
	}
	return command, nil
}
