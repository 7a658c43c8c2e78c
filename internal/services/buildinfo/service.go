package buildinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-build-info/internal/domain/csource"
	"github.com/launchbynttdata/launch-build-info/internal/domain/descriptor"
	"github.com/launchbynttdata/launch-build-info/internal/domain/stamp"
	"github.com/launchbynttdata/launch-build-info/internal/logging"
	"github.com/launchbynttdata/launch-build-info/internal/vcs"
)

var ErrNilDescriber = errors.New("buildinfo service: nil describer")

// Config captures the inputs for one generation run.
type Config struct {
	Names       csource.Names
	TimeFormat  stamp.Format
	DirtyMarker string
}

// Metadata is the version-control and time information embedded in the output.
type Metadata struct {
	Descriptor  string
	Description descriptor.Description
	Timestamp   string
	Time        time.Time
}

// Service collects build metadata and renders it as C source.
type Service struct {
	describer vcs.Describer
	clock     func() time.Time
	logger    *zap.Logger
}

// NewService constructs a Service. A nil clock uses time.Now.
func NewService(describer vcs.Describer, clock func() time.Time, logger *zap.Logger) Service {
	if clock == nil {
		clock = time.Now
	}
	return Service{describer: describer, clock: clock, logger: logging.OrNop(logger)}
}

// Collect obtains the descriptor and the current local timestamp.
func (s Service) Collect(ctx context.Context, cfg Config) (Metadata, error) {
	if s.describer == nil {
		return Metadata{}, ErrNilDescriber
	}

	raw, err := s.describer.Describe(ctx)
	if err != nil {
		return Metadata{}, fmt.Errorf("describing revision: %w", err)
	}
	desc := strings.TrimSpace(raw)
	if desc == "" {
		return Metadata{}, fmt.Errorf("describing revision: %w: empty descriptor", vcs.ErrVersionControlUnavailable)
	}

	now := s.clock().Local()
	ts, err := stamp.Render(now, cfg.TimeFormat)
	if err != nil {
		return Metadata{}, err
	}

	marker := cfg.DirtyMarker
	if marker == "" {
		marker = descriptor.DefaultDirtyMarker
	}
	parsed := descriptor.Parse(desc, marker)

	fields := []zap.Field{
		zap.String("descriptor", desc),
		zap.Bool("dirty", parsed.Dirty),
		zap.Bool("tagged", parsed.Tagged()),
	}
	if parsed.Tagged() {
		fields = append(fields, zap.String("tag", parsed.Tag), zap.Int("distance", parsed.Distance), zap.Bool("exact", parsed.Exact()))
	}
	if parsed.Hash != "" {
		fields = append(fields, zap.String("hash", parsed.Hash))
	}
	if parsed.Version != nil {
		fields = append(fields, zap.String("version", parsed.Version.String()))
	}
	s.logger.Debug("revision described", fields...)
	if parsed.Dirty {
		s.logger.Warn("working tree has uncommitted changes", zap.String("descriptor", desc))
	}

	return Metadata{
		Descriptor:  desc,
		Description: parsed,
		Timestamp:   ts,
		Time:        now,
	}, nil
}

// Generate collects metadata and writes the generated source to w. Nothing is
// written when collection or rendering fails.
func (s Service) Generate(ctx context.Context, cfg Config, w io.Writer) (Metadata, error) {
	meta, err := s.Collect(ctx, cfg)
	if err != nil {
		return Metadata{}, err
	}

	var buf bytes.Buffer
	err = csource.Render(&buf, csource.Source{
		Names:     cfg.Names,
		GitInfo:   meta.Descriptor,
		BuildTime: meta.Timestamp,
	})
	if err != nil {
		return Metadata{}, err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return Metadata{}, fmt.Errorf("writing generated source: %w", err)
	}

	s.logger.Info("build info generated", zap.String("descriptor", meta.Descriptor), zap.String("time", meta.Timestamp))
	return meta, nil
}
