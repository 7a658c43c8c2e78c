package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunPrintsVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run(context.Background(), []string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr=%q)", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "buildinfo ") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestRunReportsErrorsOnStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--source", "svn", "--log-level", "terse"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "buildinfo: unknown descriptor source \"svn\"") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}
