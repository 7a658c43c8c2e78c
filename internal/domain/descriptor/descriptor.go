package descriptor

import (
	"regexp"
	"strconv"
	"strings"

	semver "github.com/blang/semver/v4"
)

// DefaultDirtyMarker is the suffix git appends for a modified working tree.
const DefaultDirtyMarker = "-dirty"

var (
	distancePattern = regexp.MustCompile(`^(.+)-([0-9]+)-g([0-9a-f]{4,40})$`)
	hashPattern     = regexp.MustCompile(`^[0-9a-f]{4,40}$`)
)

// Description is a parsed version-control descriptor such as v1.2.3-4-gabc1234-dirty.
type Description struct {
	Raw      string
	Tag      string
	Distance int
	Hash     string
	Dirty    bool
	// Version is set when Tag is a semantic version, with or without a leading v.
	Version *semver.Version
}

// Tagged reports whether the descriptor names a tag rather than falling back to a hash.
func (d Description) Tagged() bool {
	return d.Tag != ""
}

// Exact reports whether the described revision is the tagged commit itself.
func (d Description) Exact() bool {
	return d.Tagged() && d.Distance == 0
}

func (d Description) String() string {
	return d.Raw
}

// Parse splits raw into its components. Unrecognised shapes are treated as a bare
// tag name so that Parse never fails; the untouched input is always kept in Raw.
func Parse(raw, dirtyMarker string) Description {
	trimmed := strings.TrimSpace(raw)
	d := Description{Raw: trimmed}
	if trimmed == "" {
		return d
	}

	rest := trimmed
	if dirtyMarker != "" && strings.HasSuffix(rest, dirtyMarker) && len(rest) > len(dirtyMarker) {
		d.Dirty = true
		rest = strings.TrimSuffix(rest, dirtyMarker)
	}

	if m := distancePattern.FindStringSubmatch(rest); m != nil {
		distance, err := strconv.Atoi(m[2])
		if err == nil {
			d.Tag = m[1]
			d.Distance = distance
			d.Hash = m[3]
			d.Version = parseSemverTag(d.Tag)
			return d
		}
	}

	if hashPattern.MatchString(rest) {
		d.Hash = rest
		return d
	}

	d.Tag = rest
	d.Version = parseSemverTag(rest)
	return d
}

// ParseTagVersion returns the semantic version carried by a tag or tag ref name.
func ParseTagVersion(name string) (semver.Version, bool) {
	v := parseSemverTag(name)
	if v == nil {
		return semver.Version{}, false
	}
	return *v, true
}

func parseSemverTag(name string) *semver.Version {
	normalized := strings.TrimSpace(name)
	normalized = strings.TrimPrefix(normalized, "refs/tags/")
	if normalized == "" {
		return nil
	}

	if version, err := semver.Parse(normalized); err == nil {
		return &version
	}

	if len(normalized) > 1 && (normalized[0] == 'v' || normalized[0] == 'V') {
		if version, err := semver.Parse(normalized[1:]); err == nil {
			return &version
		}
	}

	return nil
}
