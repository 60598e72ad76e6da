//go:build !windows

package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
)

// pipePrefix matches the socket file name .NET uses for named pipes on Unix,
// so drivers built on System.IO.Pipes can listen on the same endpoint.
const pipePrefix = "CoreFxPipe_"

// PipeAddress returns the Unix domain socket path for the pipe called name.
// An empty dir means os.TempDir().
func PipeAddress(dir, name string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, pipePrefix+name)
}

// PipeDialer returns a Dialer for Unix domain sockets.
func PipeDialer() Dialer {
	return func(ctx context.Context, address string) (Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", address)
	}
}
