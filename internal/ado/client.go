package ado

import (
	"context"
)

// TagRefPrefix is the ref namespace holding tags.
const TagRefPrefix = "refs/tags/"

// Ref represents a Git ref returned by Azure DevOps.
type Ref struct {
	Name     string
	ObjectID string
	// PeeledObjectID is the commit an annotated tag points at; empty for lightweight tags.
	PeeledObjectID string
}

// CommitID returns the commit the ref ultimately resolves to.
func (r Ref) CommitID() string {
	if r.PeeledObjectID != "" {
		return r.PeeledObjectID
	}
	return r.ObjectID
}

// Client describes the Azure DevOps Git operations buildinfo needs.
type Client interface {
	// ListRefsWithPrefix returns refs whose names start with the provided prefix
	// (e.g. "refs/tags/") with annotated tags peeled to their commits.
	ListRefsWithPrefix(ctx context.Context, prefix string) ([]Ref, error)
}
