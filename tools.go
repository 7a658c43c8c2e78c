//go:build tools
// +build tools

// This file pins the lint and security tooling in go.mod so that the magefile
// targets run the same versions everywhere.
package main

import (
	_ "github.com/golangci/golangci-lint/v2/cmd/golangci-lint"
	_ "github.com/securego/gosec/v2/cmd/gosec"
	_ "golang.org/x/vuln/cmd/govulncheck"
)
