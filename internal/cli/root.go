package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/launch-build-info/internal/ado"
	"github.com/launchbynttdata/launch-build-info/internal/config"
	"github.com/launchbynttdata/launch-build-info/internal/domain/csource"
	"github.com/launchbynttdata/launch-build-info/internal/domain/descriptor"
	"github.com/launchbynttdata/launch-build-info/internal/domain/stamp"
	"github.com/launchbynttdata/launch-build-info/internal/logging"
	"github.com/launchbynttdata/launch-build-info/internal/services/buildinfo"
	"github.com/launchbynttdata/launch-build-info/internal/vcs"
	"github.com/launchbynttdata/launch-build-info/internal/version"
)

const (
	envLogLevel    = "BUILDINFO_LOG_LEVEL"
	envSource      = "BUILDINFO_SOURCE"
	envDir         = "BUILDINFO_DIR"
	envDirtyMarker = "BUILDINFO_DIRTY_MARKER"
	envTags        = "BUILDINFO_TAGS"
	envAbbrev      = "BUILDINFO_ABBREV"
	envHeader      = "BUILDINFO_HEADER"
	envGitVar      = "BUILDINFO_GIT_VAR"
	envTimeVar     = "BUILDINFO_TIME_VAR"
	envTimeFormat  = "BUILDINFO_TIME_FORMAT"
	envOutput      = "BUILDINFO_OUTPUT"

	envOrgURL  = "BUILDINFO_ORG_URL"
	envProject = "BUILDINFO_PROJECT"
	envRepo    = "BUILDINFO_REPO"
	envToken   = "BUILDINFO_TOKEN"
	envCommit  = "BUILDINFO_COMMIT_SHA"
)

const (
	sourceGit = "git"
	sourceADO = "ado"

	generatedFileMode = 0o644
)

var ErrUnknownSource = errors.New("unknown descriptor source")

// Run executes the CLI with explicit arguments and output streams.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := newRootCommand(defaultApp())
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// app holds the process-level collaborators so tests can replace them.
type app struct {
	now       func() time.Time
	runGit    vcs.Runner
	newClient func(context.Context, ado.Config) (ado.Client, error)
	newLogger func(level string) (*zap.Logger, error)
	lookupEnv func(string) (string, bool)
}

func defaultApp() app {
	return app{
		now:       time.Now,
		runGit:    vcs.MageRunner,
		newClient: ado.NewClient,
		newLogger: logging.New,
		lookupEnv: os.LookupEnv,
	}
}

type rootFlagSet struct {
	logLevel    *stringFlag
	source      *stringFlag
	dir         *stringFlag
	dirtyMarker *stringFlag
	tags        *boolFlag
	abbrev      *intFlag
	header      *stringFlag
	gitVar      *stringFlag
	timeVar     *stringFlag
	timeFormat  *stringFlag
	output      *stringFlag

	orgURL  *stringFlag
	project *stringFlag
	repo    *stringFlag
	token   *stringFlag
	commit  *stringFlag
}

type runtimeConfig struct {
	resolver    config.Resolver
	logger      *zap.Logger
	describer   vcs.Describer
	dirtyMarker string
	names       csource.Names
	output      string
}

func newRootCommand(a app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "buildinfo",
		Short:         "Generate a C source file embedding the git descriptor and build time",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("buildinfo {{.Version}}\n")

	flags := bindRootFlags(cmd)
	cmd.RunE = runGenerate(flags, a)

	cmd.AddCommand(
		newGenerateCommand(flags, a),
		newHeaderCommand(flags, a),
		newDescribeCommand(flags, a),
		newVersionCommand(),
	)

	return cmd
}

func newGenerateCommand(flags *rootFlagSet, a app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Print the generated source (same as running buildinfo without a command)",
		Args:  cobra.NoArgs,
		RunE:  runGenerate(flags, a),
	}
}

func runGenerate(flags *rootFlagSet, a app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		runtime, cleanup, err := buildRuntime(ctx, flags, a)
		if err != nil {
			return err
		}
		defer cleanup()

		format, err := stamp.ParseFormat(flags.timeFormat.Value(runtime.resolver))
		if err != nil {
			return err
		}

		service := buildinfo.NewService(runtime.describer, a.now, runtime.logger)
		var buf bytes.Buffer
		_, err = service.Generate(ctx, buildinfo.Config{
			Names:       runtime.names,
			TimeFormat:  format,
			DirtyMarker: runtime.dirtyMarker,
		}, &buf)
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), runtime, buf.Bytes())
	}
}

func newHeaderCommand(flags *rootFlagSet, a app) *cobra.Command {
	return &cobra.Command{
		Use:   "header",
		Short: "Print the declarations header matching the generated source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, logger, cleanup, err := buildLogging(flags, a)
			if err != nil {
				return err
			}
			defer cleanup()

			names := resolveNames(flags, resolver)
			var buf bytes.Buffer
			if err := csource.RenderHeader(&buf, names); err != nil {
				return err
			}
			logger.Debug("header rendered", zap.String("header", names.Header))

			return writeOutput(cmd.OutOrStdout(), runtimeConfig{
				logger: logger,
				output: strings.TrimSpace(flags.output.Value(resolver)),
			}, buf.Bytes())
		},
	}
}

func newDescribeCommand(flags *rootFlagSet, a app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the version-control descriptor that would be embedded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runtime, cleanup, err := buildRuntime(ctx, flags, a)
			if err != nil {
				return err
			}
			defer cleanup()

			service := buildinfo.NewService(runtime.describer, a.now, runtime.logger)
			meta, err := service.Collect(ctx, buildinfo.Config{DirtyMarker: runtime.dirtyMarker})
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), meta.Descriptor); err != nil {
				return fmt.Errorf("writing descriptor: %w", err)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "buildinfo %s\ncommit: %s\nbuild date: %s\n", version.Version, version.Commit, version.BuildDate); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		logLevel:    bindStringFlag(fs, flagSpec{name: "log-level", envKey: envLogLevel, usage: "Log verbosity (terse or verbose)"}, logging.LevelTerse),
		source:      bindStringFlag(fs, flagSpec{name: "source", envKey: envSource, usage: "Where the descriptor comes from (git or ado)"}, sourceGit),
		dir:         bindStringFlag(fs, flagSpec{name: "dir", short: "C", envKey: envDir, usage: "Working tree to describe"}, "."),
		dirtyMarker: bindStringFlag(fs, flagSpec{name: "dirty-marker", envKey: envDirtyMarker, usage: "Suffix marking uncommitted changes"}, descriptor.DefaultDirtyMarker),
		tags:        bindBoolFlag(fs, flagSpec{name: "tags", envKey: envTags, usage: "Let lightweight tags match"}, false),
		abbrev:      bindIntFlag(fs, flagSpec{name: "abbrev", envKey: envAbbrev, usage: "Abbreviated hash length (0 keeps the default)"}, 0),
		header:      bindStringFlag(fs, flagSpec{name: "header", envKey: envHeader, usage: "Header included by the generated source"}, csource.DefaultHeader),
		gitVar:      bindStringFlag(fs, flagSpec{name: "git-var", envKey: envGitVar, usage: "Symbol holding the descriptor"}, csource.DefaultGitVar),
		timeVar:     bindStringFlag(fs, flagSpec{name: "time-var", envKey: envTimeVar, usage: "Symbol holding the build time"}, csource.DefaultTimeVar),
		timeFormat:  bindStringFlag(fs, flagSpec{name: "time-format", envKey: envTimeFormat, usage: "Build time rendering (default, rfc3339 or unix)"}, string(stamp.FormatDefault)),
		output:      bindStringFlag(fs, flagSpec{name: "output", short: "o", envKey: envOutput, usage: "Write to this file instead of stdout"}, ""),
		orgURL:      bindStringFlag(fs, flagSpec{name: "org-url", envKey: envOrgURL, usage: "Azure DevOps organization URL (ado source)"}, ""),
		project:     bindStringFlag(fs, flagSpec{name: "project", envKey: envProject, usage: "Azure DevOps project name (ado source)"}, ""),
		repo:        bindStringFlag(fs, flagSpec{name: "repo", envKey: envRepo, usage: "Azure DevOps repository name (ado source)"}, ""),
		token:       bindSecretFlag(fs, flagSpec{name: "token", envKey: envToken, usage: "Azure DevOps personal access token or System.AccessToken (ado source)"}),
		commit:      bindStringFlag(fs, flagSpec{name: "commit-sha", envKey: envCommit, usage: "Commit to describe (ado source)"}, ""),
	}
}

func buildLogging(flags *rootFlagSet, a app) (config.Resolver, *zap.Logger, func(), error) {
	nopResolver := config.NewResolver(zap.NewNop()).WithLookup(a.lookupEnv)
	logLevel := flags.logLevel.Value(nopResolver)

	logger, err := a.newLogger(logLevel)
	if err != nil {
		return config.Resolver{}, nil, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger).WithLookup(a.lookupEnv)
	_ = flags.logLevel.Value(resolver)

	cleanup := func() {
		_ = logger.Sync()
	}
	return resolver, logger, cleanup, nil
}

func buildRuntime(ctx context.Context, flags *rootFlagSet, a app) (runtimeConfig, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resolver, logger, cleanup, err := buildLogging(flags, a)
	if err != nil {
		return runtimeConfig{}, nil, err
	}
	fail := func(err error) (runtimeConfig, func(), error) {
		cleanup()
		return runtimeConfig{}, nil, err
	}

	dirtyMarker := flags.dirtyMarker.Value(resolver)
	if dirtyMarker == "" {
		dirtyMarker = descriptor.DefaultDirtyMarker
	}

	abbrev, err := flags.abbrev.Value(resolver)
	if err != nil {
		return fail(err)
	}
	if abbrev < 0 {
		return fail(errors.New("abbrev must not be negative"))
	}

	source := strings.ToLower(strings.TrimSpace(flags.source.Value(resolver)))
	var describer vcs.Describer
	switch source {
	case sourceGit, "":
		tags, err := flags.tags.Value(resolver)
		if err != nil {
			return fail(err)
		}
		describer = vcs.NewGitDescriber(vcs.GitConfig{
			Dir:         flags.dir.Value(resolver),
			DirtyMarker: dirtyMarker,
			Tags:        tags,
			Abbrev:      abbrev,
		}, a.runGit, logger)
	case sourceADO:
		describer, err = buildADODescriber(ctx, flags, resolver, a, abbrev, logger)
		if err != nil {
			return fail(err)
		}
	default:
		return fail(fmt.Errorf("%w %q (expected %s or %s)", ErrUnknownSource, source, sourceGit, sourceADO))
	}
	logger.Debug("descriptor source selected", zap.String("source", source))

	return runtimeConfig{
		resolver:    resolver,
		logger:      logger,
		describer:   describer,
		dirtyMarker: dirtyMarker,
		names:       resolveNames(flags, resolver),
		output:      strings.TrimSpace(flags.output.Value(resolver)),
	}, cleanup, nil
}

func buildADODescriber(ctx context.Context, flags *rootFlagSet, resolver config.Resolver, a app, abbrev int, logger *zap.Logger) (vcs.Describer, error) {
	orgURL := strings.TrimSpace(flags.orgURL.Value(resolver))
	if orgURL == "" {
		return nil, fmt.Errorf("org-url is required (set %s or --org-url)", envOrgURL)
	}

	project := strings.TrimSpace(flags.project.Value(resolver))
	if project == "" {
		return nil, fmt.Errorf("project is required (set %s or --project)", envProject)
	}

	repo := strings.TrimSpace(flags.repo.Value(resolver))
	if repo == "" {
		return nil, fmt.Errorf("repo is required (set %s or --repo)", envRepo)
	}

	token := strings.TrimSpace(flags.token.Value(resolver))
	if token == "" {
		return nil, fmt.Errorf("token is required (set %s or --token)", envToken)
	}

	commit := strings.TrimSpace(flags.commit.Value(resolver))
	if commit == "" {
		return nil, fmt.Errorf("commit-sha is required (set %s or --commit-sha)", envCommit)
	}

	client, err := a.newClient(ctx, ado.Config{
		OrganizationURL: orgURL,
		Project:         project,
		Repository:      repo,
		Token:           token,
	})
	if err != nil {
		return nil, err
	}

	return vcs.NewADODescriber(client, vcs.ADOConfig{CommitSHA: commit, Abbrev: abbrev}, logger), nil
}

func resolveNames(flags *rootFlagSet, resolver config.Resolver) csource.Names {
	return csource.Names{
		Header:  flags.header.Value(resolver),
		GitVar:  flags.gitVar.Value(resolver),
		TimeVar: flags.timeVar.Value(resolver),
	}
}

func writeOutput(stdout io.Writer, runtime runtimeConfig, content []byte) error {
	if runtime.output == "" || runtime.output == "-" {
		if _, err := stdout.Write(content); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	//nolint:gosec // generated sources are read by the compiler and other users
	if err := os.WriteFile(runtime.output, content, generatedFileMode); err != nil {
		return fmt.Errorf("writing %s: %w", runtime.output, err)
	}
	if runtime.logger != nil {
		runtime.logger.Debug("output written", zap.String("path", runtime.output), zap.Int("bytes", len(content)))
	}
	return nil
}
