package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const redacted = "***"

// Resolver applies env > CLI > default precedence to buildinfo settings.
type Resolver struct {
	logger *zap.Logger
	lookup func(string) (string, bool)
}

// NewResolver creates a Resolver that reads the process environment.
func NewResolver(logger *zap.Logger) Resolver {
	return Resolver{logger: logger, lookup: os.LookupEnv}
}

// WithLookup returns a copy of r that reads variables through lookup.
func (r Resolver) WithLookup(lookup func(string) (string, bool)) Resolver {
	r.lookup = lookup
	return r
}

func (r Resolver) env(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if r.lookup == nil {
		return os.LookupEnv(key)
	}
	return r.lookup(key)
}

func (r Resolver) logConflict(setting, envVal, cliVal string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(
		"config: conflict for "+setting,
		zap.String("env", envVal),
		zap.String("cli", cliVal),
		zap.String("decision", "using env value"),
	)
}

func (r Resolver) pick(setting string, envVal string, envSet bool, cliVal string, cliSet bool, defaultVal string, secret bool) string {
	if envSet && cliSet && envVal != cliVal {
		if secret {
			r.logConflict(setting, redacted, redacted)
		} else {
			r.logConflict(setting, envVal, cliVal)
		}
	}
	if envSet {
		return envVal
	}
	if cliSet {
		return cliVal
	}
	return defaultVal
}

// String resolves a string setting using the precedence rules.
func (r Resolver) String(setting, envKey, cliVal string, cliSet bool, defaultVal string) string {
	envVal, envSet := r.env(envKey)
	return r.pick(setting, strings.TrimSpace(envVal), envSet, cliVal, cliSet, defaultVal, false)
}

// Secret resolves a string setting whose values must never reach the logs.
func (r Resolver) Secret(setting, envKey, cliVal string, cliSet bool, defaultVal string) string {
	envVal, envSet := r.env(envKey)
	return r.pick(setting, strings.TrimSpace(envVal), envSet, cliVal, cliSet, defaultVal, true)
}

// Bool resolves a boolean setting.
func (r Resolver) Bool(setting, envKey string, cliVal bool, cliSet bool, defaultVal bool) (bool, error) {
	envVal, envSet := r.env(envKey)
	if !envSet {
		if cliSet {
			return cliVal, nil
		}
		return defaultVal, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(envVal))
	if err != nil {
		return false, fmt.Errorf("config %s: invalid boolean %q: %w", setting, envVal, err)
	}

	if cliSet && parsed != cliVal {
		r.logConflict(setting, envVal, strconv.FormatBool(cliVal))
	}

	return parsed, nil
}

// Int resolves an integer setting.
func (r Resolver) Int(setting, envKey string, cliVal int, cliSet bool, defaultVal int) (int, error) {
	envVal, envSet := r.env(envKey)
	if !envSet {
		if cliSet {
			return cliVal, nil
		}
		return defaultVal, nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(envVal))
	if err != nil {
		return 0, fmt.Errorf("config %s: invalid integer %q: %w", setting, envVal, err)
	}

	if cliSet && parsed != cliVal {
		r.logConflict(setting, envVal, strconv.Itoa(cliVal))
	}

	return parsed, nil
}
