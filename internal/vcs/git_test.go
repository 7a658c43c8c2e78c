package vcs

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"github.com/magefile/mage/mg"
)

type fakeRunner struct {
	out  string
	ran  bool
	err  error
	cmd  string
	args []string
}

func (f *fakeRunner) run(stdout io.Writer, cmd string, args ...string) (bool, error) {
	f.cmd = cmd
	f.args = append([]string(nil), args...)
	if f.out != "" {
		_, _ = io.WriteString(stdout, f.out)
	}
	return f.ran, f.err
}

func TestGitDescriberArgs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  GitConfig
		want []string
	}{
		{name: "defaults", cfg: GitConfig{}, want: []string{"describe", "--always", "--dirty"}},
		{name: "dir", cfg: GitConfig{Dir: " src "}, want: []string{"-C", "src", "describe", "--always", "--dirty"}},
		{name: "custom marker", cfg: GitConfig{DirtyMarker: "+local"}, want: []string{"describe", "--always", "--dirty=+local"}},
		{name: "tags and abbrev", cfg: GitConfig{Tags: true, Abbrev: 10}, want: []string{"describe", "--always", "--dirty", "--tags", "--abbrev=10"}},
	}

	for _, tc := range cases {
		got := NewGitDescriber(tc.cfg, nil, nil).Args()
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestGitDescriberTrimsOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: "  v1.2.3-1-gabc1234-dirty\n", ran: true}
	d := NewGitDescriber(GitConfig{Dir: "repo"}, runner.run, nil)

	got, err := d.Describe(context.Background())
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if got != "v1.2.3-1-gabc1234-dirty" {
		t.Fatalf("unexpected descriptor %q", got)
	}
	if runner.cmd != "git" {
		t.Fatalf("expected git to run, got %s", runner.cmd)
	}
	if runner.args[0] != "-C" || runner.args[1] != "repo" {
		t.Fatalf("expected -C repo, got %v", runner.args)
	}
}

func TestGitDescriberFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		runner *fakeRunner
		want   string
	}{
		{name: "git missing", runner: &fakeRunner{err: errors.New(`failed to run "git describe": executable file not found`)}, want: "could not be started"},
		{name: "not a repository", runner: &fakeRunner{ran: true, err: mg.Fatalf(128, "running git failed")}, want: "status 128"},
		{name: "empty output", runner: &fakeRunner{ran: true, out: " \n"}, want: "no output"},
	}

	for _, tc := range cases {
		d := NewGitDescriber(GitConfig{}, tc.runner.run, nil)
		got, err := d.Describe(context.Background())
		if !errors.Is(err, ErrVersionControlUnavailable) {
			t.Fatalf("%s: expected ErrVersionControlUnavailable got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.want, err.Error())
		}
		if got != "" {
			t.Fatalf("%s: expected empty descriptor, got %q", tc.name, got)
		}
	}
}

func TestGitDescriberHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{out: "abc1234", ran: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGitDescriber(GitConfig{}, runner.run, nil).Describe(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
	if runner.cmd != "" {
		t.Fatalf("git should not run after cancellation")
	}
}

func TestGitDescriberOutsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	dir := t.TempDir()
	d := NewGitDescriber(GitConfig{Dir: dir}, nil, nil)
	if _, err := d.Describe(context.Background()); !errors.Is(err, ErrVersionControlUnavailable) {
		t.Fatalf("expected ErrVersionControlUnavailable outside a repository, got %v", err)
	}
}
