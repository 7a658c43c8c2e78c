// Package vcs produces version-control descriptors for the current build.
package vcs

import (
	"context"
	"errors"
)

// ErrVersionControlUnavailable indicates no descriptor could be obtained: the
// describe command is missing, the directory is not a repository, or the
// remote lookup failed.
var ErrVersionControlUnavailable = errors.New("version control unavailable")

// Describer produces a human-readable descriptor for the revision being built.
type Describer interface {
	Describe(ctx context.Context) (string, error)
}

// DescriberFunc adapts a function to the Describer interface.
type DescriberFunc func(ctx context.Context) (string, error)

// Describe calls f.
func (f DescriberFunc) Describe(ctx context.Context) (string, error) {
	return f(ctx)
}
