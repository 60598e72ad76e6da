//go:build windows

package transport

import (
	"context"

	"github.com/Microsoft/go-winio"
)

// PipeAddress returns the local named pipe path for name. dir is ignored.
func PipeAddress(_ string, name string) string {
	return `\\.\pipe\` + name
}

// PipeDialer returns a Dialer for Windows named pipes.
func PipeDialer() Dialer {
	return func(ctx context.Context, address string) (Conn, error) {
		return winio.DialPipeContext(ctx, address)
	}
}
