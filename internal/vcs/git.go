package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/magefile/mage/sh"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-build-info/internal/domain/descriptor"
	"github.com/launchbynttdata/launch-build-info/internal/logging"
)

// Runner executes cmd, writing its standard output to stdout. ran reports whether
// the command started at all.
type Runner func(stdout io.Writer, cmd string, args ...string) (ran bool, err error)

// MageRunner runs commands through mage's sh package, forwarding stderr to ours.
func MageRunner(stdout io.Writer, cmd string, args ...string) (bool, error) {
	return sh.Exec(nil, stdout, os.Stderr, cmd, args...)
}

// GitConfig controls the git describe invocation.
type GitConfig struct {
	// Dir is the working tree to describe; empty means the current directory.
	Dir         string
	DirtyMarker string
	// Tags lets lightweight tags match, not only annotated ones.
	Tags bool
	// Abbrev sets the hash length; zero keeps git's default.
	Abbrev int
}

// GitDescriber runs "git describe --always --dirty" against a working tree.
type GitDescriber struct {
	cfg    GitConfig
	run    Runner
	logger *zap.Logger
}

// NewGitDescriber constructs a GitDescriber. A nil run uses MageRunner.
func NewGitDescriber(cfg GitConfig, run Runner, logger *zap.Logger) GitDescriber {
	if run == nil {
		run = MageRunner
	}
	if cfg.DirtyMarker == "" {
		cfg.DirtyMarker = descriptor.DefaultDirtyMarker
	}
	return GitDescriber{cfg: cfg, run: run, logger: logging.OrNop(logger)}
}

// Args returns the git arguments Describe will use.
func (g GitDescriber) Args() []string {
	args := make([]string, 0, 7)
	if dir := strings.TrimSpace(g.cfg.Dir); dir != "" {
		args = append(args, "-C", dir)
	}
	args = append(args, "describe", "--always")
	if g.cfg.DirtyMarker == descriptor.DefaultDirtyMarker {
		args = append(args, "--dirty")
	} else {
		args = append(args, "--dirty="+g.cfg.DirtyMarker)
	}
	if g.cfg.Tags {
		args = append(args, "--tags")
	}
	if g.cfg.Abbrev > 0 {
		args = append(args, "--abbrev="+strconv.Itoa(g.cfg.Abbrev))
	}
	return args
}

// Describe runs git and returns its trimmed output.
func (g GitDescriber) Describe(ctx context.Context) (string, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}

	args := g.Args()
	g.logger.Debug("running git", zap.Strings("args", args))

	var stdout bytes.Buffer
	ran, err := g.run(&stdout, "git", args...)
	if err != nil {
		if !ran {
			return "", fmt.Errorf("%w: git could not be started: %w", ErrVersionControlUnavailable, err)
		}
		return "", fmt.Errorf("%w: git describe exited with status %d: %w", ErrVersionControlUnavailable, sh.ExitStatus(err), err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%w: git describe produced no output", ErrVersionControlUnavailable)
	}
	return out, nil
}
