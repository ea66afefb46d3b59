package pagesource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mantree/internal/logfields"
)

// goPath returns the first GOPATH entry reported by the go tool.
var goPath = func(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "go", "env", "GOPATH").Output()
	if err != nil {
		return "", fmt.Errorf("go env GOPATH: %w", err)
	}
	entries := filepath.SplitList(strings.TrimSpace(string(out)))
	if len(entries) == 0 || entries[0] == "" {
		return "", fmt.Errorf("go env GOPATH: empty")
	}
	return entries[0], nil
}

// ResolveCommand returns the generator binary to run. With localBuild the
// binary is the one installed by "go install" under $GOPATH/bin; otherwise
// command is returned as configured.
func ResolveCommand(ctx context.Context, command string, localBuild bool) (string, error) {
	if !localBuild {
		return command, nil
	}
	gp, err := goPath(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneratorNotFound, err)
	}
	bin := filepath.Join(gp, "bin", filepath.Base(command))
	info, err := os.Stat(bin)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: cannot find %s", ErrGeneratorNotFound, bin)
	}
	slog.Info("Using locally built generator", logfields.Command(bin))
	return bin, nil
}
