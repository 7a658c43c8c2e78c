//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryPath    = "bin/buildinfo"
	versionPkg    = "github.com/launchbynttdata/launch-build-info/internal/version"
	buildinfoMain = "./cmd/buildinfo"
)

// Build compiles bin/buildinfo with its own git descriptor stamped in.
func Build() error {
	describe, err := sh.Output("git", "describe", "--always", "--dirty")
	if err != nil {
		return fmt.Errorf("describing checkout: %w", err)
	}
	commit, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		return fmt.Errorf("resolving commit: %w", err)
	}

	ldflags := strings.Join([]string{
		"-s", "-w",
		"-X", versionPkg + ".Version=" + strings.TrimSpace(describe),
		"-X", versionPkg + ".Commit=" + strings.TrimSpace(commit),
		"-X", versionPkg + ".BuildDate=" + time.Now().UTC().Format(time.RFC3339),
	}, " ")

	return sh.RunWith(map[string]string{"CGO_ENABLED": "0"}, "go", "build", "-trimpath", "-ldflags", ldflags, "-o", binaryPath, buildinfoMain)
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Integration runs the tests that drive a real git binary.
func Integration() error {
	mg.Deps(Test)
	return sh.RunV("go", "test", "-tags", "integration", "./integration/...")
}

// Lint runs golangci-lint, gosec and govulncheck at the versions pinned in go.mod.
func Lint() {
	mg.SerialDeps(golangci, gosec, govulncheck)
}

func golangci() error {
	return sh.RunV("go", "run", "github.com/golangci/golangci-lint/v2/cmd/golangci-lint", "run", "./...")
}

func gosec() error {
	return sh.RunV("go", "run", "github.com/securego/gosec/v2/cmd/gosec", "-quiet", "./...")
}

func govulncheck() error {
	return sh.RunV("go", "run", "golang.org/x/vuln/cmd/govulncheck", "./...")
}

// Clean removes build output.
func Clean() error {
	return os.RemoveAll("bin")
}
