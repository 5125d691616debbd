//go:build tools
// +build tools

// Package file_relay pins the code generators run by go generate, so that
// mockgen resolves to the version recorded in go.mod.
package file_relay

import (
	_ "go.uber.org/mock/mockgen"
)
