package config

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fakeEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolver_Secret_RedactsLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core)).WithLookup(fakeEnv(map[string]string{"TEST_SECRET_ENV": "env-secret"}))

	val := resolver.Secret("test-secret", "TEST_SECRET_ENV", "cli-secret", true, "default")

	if val != "env-secret" {
		t.Errorf("expected env value 'env-secret', got %q", val)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}

	entry := logs.All()[0]
	if entry.Message != "config: conflict for test-secret" {
		t.Errorf("unexpected log message: %q", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["env"] != redacted {
		t.Errorf("expected env field to be redacted, got %q", fields["env"])
	}
	if fields["cli"] != redacted {
		t.Errorf("expected cli field to be redacted, got %q", fields["cli"])
	}
}

func TestResolver_String_DoesNotRedactLogs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core)).WithLookup(fakeEnv(map[string]string{"BUILDINFO_HEADER": " version.h "}))

	val := resolver.String("header", "BUILDINFO_HEADER", "build_info.h", true, "build_info.h")

	if val != "version.h" {
		t.Errorf("expected trimmed env value 'version.h', got %q", val)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}

	fields := logs.All()[0].ContextMap()
	if fields["env"] != "version.h" {
		t.Errorf("expected env field to be 'version.h', got %q", fields["env"])
	}
	if fields["cli"] != "build_info.h" {
		t.Errorf("expected cli field to be 'build_info.h', got %q", fields["cli"])
	}
}

func TestResolver_String_Precedence(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil).WithLookup(fakeEnv(nil))

	if got := resolver.String("dir", "BUILDINFO_DIR", "src", true, "."); got != "src" {
		t.Fatalf("cli value should win over default, got %q", got)
	}
	if got := resolver.String("dir", "BUILDINFO_DIR", "src", false, "."); got != "." {
		t.Fatalf("default should apply when cli unset, got %q", got)
	}
}

func TestResolver_Bool(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil).WithLookup(fakeEnv(map[string]string{
		"GOOD": "true",
		"BAD":  "sometimes",
	}))

	got, err := resolver.Bool("tags", "GOOD", false, true, false)
	if err != nil {
		t.Fatalf("bool: %v", err)
	}
	if !got {
		t.Fatalf("expected env value true to win")
	}

	if _, err := resolver.Bool("tags", "BAD", false, false, false); err == nil {
		t.Fatalf("expected error for invalid boolean")
	}

	got, err = resolver.Bool("tags", "MISSING", true, true, false)
	if err != nil || !got {
		t.Fatalf("expected cli value true, got %v err=%v", got, err)
	}
}

func TestResolver_Int(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	resolver := NewResolver(zap.New(core)).WithLookup(fakeEnv(map[string]string{
		"ABBREV": "12",
		"BAD":    "twelve",
	}))

	got, err := resolver.Int("abbrev", "ABBREV", 8, true, 0)
	if err != nil {
		t.Fatalf("int: %v", err)
	}
	if got != 12 {
		t.Fatalf("expected env value 12, got %d", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected conflict to be logged, got %d entries", logs.Len())
	}

	if _, err := resolver.Int("abbrev", "BAD", 0, false, 0); err == nil {
		t.Fatalf("expected error for invalid integer")
	}

	got, err = resolver.Int("abbrev", "MISSING", 0, false, 7)
	if err != nil || got != 7 {
		t.Fatalf("expected default 7, got %d err=%v", got, err)
	}
}
