package testutils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// FreePort returns a TCP port that was free at the time of the call. The
// listener is closed before returning, so a small race window exists; tests
// that spawn a node should bind immediately.
func FreePort(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to find open port")
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "failed to close port listener")
	return uint16(port)
}
