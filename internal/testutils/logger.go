// Package testutils provides helpers shared by the package tests: a test
// logger, temp directories, and free-port allocation for spawning nodes.
package testutils

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a zerolog.Logger configured for testing.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(os.Stdout).Level(zerolog.DebugLevel)
}
