package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/launchbynttdata/launch-build-info/internal/config"
)

// flagSpec names a setting once for the CLI, the environment and the logs.
type flagSpec struct {
	name   string
	short  string
	envKey string
	usage  string
}

func (s flagSpec) describe() string {
	trimmed := strings.TrimSpace(s.usage)
	if s.envKey == "" {
		return trimmed
	}
	if trimmed == "" {
		return fmt.Sprintf("env: %s", s.envKey)
	}
	return fmt.Sprintf("%s (env: %s)", trimmed, s.envKey)
}

type flagBase struct {
	fs   *pflag.FlagSet
	spec flagSpec
}

func (b flagBase) changed() bool {
	if b.fs == nil || b.spec.name == "" {
		return false
	}
	return b.fs.Changed(b.spec.name)
}

type stringFlag struct {
	base       flagBase
	defaultVal string
	value      string
	isSecret   bool
}

func bindStringFlag(fs *pflag.FlagSet, spec flagSpec, defaultVal string) *stringFlag {
	return bindString(fs, spec, defaultVal, false)
}

func bindSecretFlag(fs *pflag.FlagSet, spec flagSpec) *stringFlag {
	return bindString(fs, spec, "", true)
}

func bindString(fs *pflag.FlagSet, spec flagSpec, defaultVal string, secret bool) *stringFlag {
	f := &stringFlag{
		base:       flagBase{fs: fs, spec: spec},
		defaultVal: defaultVal,
		value:      defaultVal,
		isSecret:   secret,
	}
	if fs != nil {
		fs.StringVarP(&f.value, spec.name, spec.short, defaultVal, spec.describe())
	}
	return f
}

func (f *stringFlag) Value(resolver config.Resolver) string {
	cliVal := strings.TrimSpace(f.value)
	spec := f.base.spec
	if f.isSecret {
		return resolver.Secret(spec.name, spec.envKey, cliVal, f.base.changed(), f.defaultVal)
	}
	return resolver.String(spec.name, spec.envKey, cliVal, f.base.changed(), f.defaultVal)
}

type boolFlag struct {
	base       flagBase
	defaultVal bool
	value      bool
}

func bindBoolFlag(fs *pflag.FlagSet, spec flagSpec, defaultVal bool) *boolFlag {
	f := &boolFlag{base: flagBase{fs: fs, spec: spec}, defaultVal: defaultVal, value: defaultVal}
	if fs != nil {
		fs.BoolVarP(&f.value, spec.name, spec.short, defaultVal, spec.describe())
	}
	return f
}

func (f *boolFlag) Value(resolver config.Resolver) (bool, error) {
	spec := f.base.spec
	return resolver.Bool(spec.name, spec.envKey, f.value, f.base.changed(), f.defaultVal)
}

type intFlag struct {
	base       flagBase
	defaultVal int
	value      int
}

func bindIntFlag(fs *pflag.FlagSet, spec flagSpec, defaultVal int) *intFlag {
	f := &intFlag{base: flagBase{fs: fs, spec: spec}, defaultVal: defaultVal, value: defaultVal}
	if fs != nil {
		fs.IntVarP(&f.value, spec.name, spec.short, defaultVal, spec.describe())
	}
	return f
}

func (f *intFlag) Value(resolver config.Resolver) (int, error) {
	spec := f.base.spec
	return resolver.Int(spec.name, spec.envKey, f.value, f.base.changed(), f.defaultVal)
}
