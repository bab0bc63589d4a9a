// Package testutil provides helpers shared by the agent's tests.
package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// SocketDir creates a short-named temporary directory for unix sockets.
// t.TempDir() paths can exceed the 108 byte sun_path limit.
func SocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "aziot-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// NewUnixSocketServer serves handler on a unix socket named name and returns the socket path.
// The server is closed when the test completes.
func NewUnixSocketServer(t *testing.T, name string, handler http.Handler) string {
	t.Helper()
	socketPath := filepath.Join(SocketDir(t), name)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listening on %s: %v", socketPath, err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener.Close()
	server.Listener = listener
	server.Start()
	t.Cleanup(server.Close)

	return socketPath
}
