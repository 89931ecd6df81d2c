//go:build tools
// +build tools

// Package tools tracks tool dependencies invoked through go generate
// (mockgen) so that go.mod and go.sum stay in sync with them.
package roomrelay

import (
	_ "go.uber.org/mock/mockgen"
)
