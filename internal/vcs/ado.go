package vcs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	semver "github.com/blang/semver/v4"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-build-info/internal/ado"
	"github.com/launchbynttdata/launch-build-info/internal/domain/descriptor"
	"github.com/launchbynttdata/launch-build-info/internal/logging"
)

const (
	defaultADOAbbrev = 7
	// minCommitLength matches the shortest abbreviation git accepts.
	minCommitLength = 4
)

var (
	ErrNilClient     = errors.New("ado describer: nil ado client")
	ErrEmptyCommit   = errors.New("ado describer: commit sha is empty")
	ErrInvalidCommit = errors.New("ado describer: commit sha must be at least 4 hex characters")
)

// ADOConfig selects the commit to describe from Azure DevOps.
type ADOConfig struct {
	CommitSHA string
	// Abbrev is the length of the hash fallback; zero means 7.
	Abbrev int
}

// ADODescriber describes a commit using the tag refs of an Azure DevOps repository.
// It is meant for pipeline checkouts that carry no tags. Remote state has no
// working tree, so the descriptor is never dirty.
type ADODescriber struct {
	client ado.Client
	cfg    ADOConfig
	logger *zap.Logger
}

// NewADODescriber constructs an ADODescriber.
func NewADODescriber(client ado.Client, cfg ADOConfig, logger *zap.Logger) ADODescriber {
	return ADODescriber{client: client, cfg: cfg, logger: logging.OrNop(logger)}
}

// Describe returns the best tag pointing at the commit, or the abbreviated commit.
func (d ADODescriber) Describe(ctx context.Context) (string, error) {
	commit := strings.ToLower(strings.TrimSpace(d.cfg.CommitSHA))
	if commit == "" {
		return "", fmt.Errorf("%w: %w", ErrVersionControlUnavailable, ErrEmptyCommit)
	}
	if !validCommit(commit) {
		return "", fmt.Errorf("%w: %w: %q", ErrVersionControlUnavailable, ErrInvalidCommit, commit)
	}
	if d.client == nil {
		return "", fmt.Errorf("%w: %w", ErrVersionControlUnavailable, ErrNilClient)
	}

	refs, err := d.client.ListRefsWithPrefix(ctx, ado.TagRefPrefix)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVersionControlUnavailable, err)
	}

	tags := tagsForCommit(refs, commit)
	d.logger.Debug("tags on commit", zap.String("commit", commit), zap.Int("refs", len(refs)), zap.Strings("tags", tags))
	if len(tags) > 0 {
		return tags[0], nil
	}

	abbrev := d.cfg.Abbrev
	if abbrev <= 0 {
		abbrev = defaultADOAbbrev
	}
	if abbrev < len(commit) {
		return commit[:abbrev], nil
	}
	return commit, nil
}

// tagsForCommit returns the names of tags resolving to commit, best first: semantic
// versions before other names, higher versions first, then by name.
func tagsForCommit(refs []ado.Ref, commit string) []string {
	type candidate struct {
		name     string
		version  semver.Version
		isSemver bool
	}
	var matches []candidate
	for _, ref := range refs {
		if !strings.HasPrefix(ref.Name, ado.TagRefPrefix) {
			continue
		}
		if !sameCommit(ref.CommitID(), commit) {
			continue
		}
		name := strings.TrimPrefix(ref.Name, ado.TagRefPrefix)
		if name == "" {
			continue
		}
		version, ok := descriptor.ParseTagVersion(name)
		matches = append(matches, candidate{name: name, version: version, isSemver: ok})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		left, right := matches[i], matches[j]
		switch {
		case left.isSemver != right.isSemver:
			return left.isSemver
		case left.isSemver && !left.version.EQ(right.version):
			return left.version.GT(right.version)
		default:
			return left.name < right.name
		}
	})

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.name)
	}
	return names
}

func sameCommit(refCommit, commit string) bool {
	refCommit = strings.ToLower(refCommit)
	if refCommit == "" {
		return false
	}
	if len(commit) < len(refCommit) {
		return strings.HasPrefix(refCommit, commit)
	}
	return refCommit == commit
}

func validCommit(commit string) bool {
	if len(commit) < minCommitLength {
		return false
	}
	for _, c := range commit {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
