package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

func newMockStream(t *testing.T, dialer *MockDialer) *Stream {
	t.Helper()
	ep := Endpoint{Side: skeleton.Left}
	return NewStream(ep, "mock://"+ep.Name(), dialer.Dial, DefaultOptions(), nil)
}

func TestEndpoint_Name(t *testing.T) {
	assert.Equal(t, "vrapplication/ffb/curl/left", Endpoint{Side: skeleton.Left}.Name())
	assert.Equal(t, "vrapplication/ffb/curl/right", Endpoint{Side: skeleton.Right}.Name())
	assert.Equal(t, "game/ffb/curl/right", Endpoint{Scope: "game", Side: skeleton.Right}.Name())
}

func TestPipeAddress(t *testing.T) {
	if runtime.GOOS == "windows" {
		assert.Equal(t, `\\.\pipe\vrapplication/ffb/curl/left`, PipeAddress("", "vrapplication/ffb/curl/left"))
		return
	}
	assert.Equal(t, "/run/ffb/CoreFxPipe_vrapplication/ffb/curl/left", PipeAddress("/run/ffb", "vrapplication/ffb/curl/left"))
	assert.Equal(t, filepath.Join(os.TempDir(), "CoreFxPipe_x"), PipeAddress("", "x"))
}

func TestStream_Connect(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		conn := NewTestableConn()
		s := newMockStream(t, &MockDialer{Conn: conn})

		require.NoError(t, s.Connect(context.Background()))
		assert.Equal(t, StateConnected, s.State())
	})

	t.Run("failure degrades", func(t *testing.T) {
		dialErr := errors.New("no such pipe")
		s := newMockStream(t, &MockDialer{Error: dialErr})

		err := s.Connect(context.Background())
		assert.ErrorIs(t, err, ErrConnectFailed)
		assert.ErrorIs(t, err, dialErr)
		assert.Equal(t, StateDegraded, s.State())
	})

	t.Run("only one attempt", func(t *testing.T) {
		dialer := &MockDialer{Error: errors.New("refused")}
		s := newMockStream(t, dialer)

		_ = s.Connect(context.Background())
		dialer.Error = nil
		dialer.Conn = NewTestableConn()

		assert.ErrorIs(t, s.Connect(context.Background()), ErrAlreadyAttempted)
		assert.Len(t, dialer.Addresses(), 1)
		assert.Equal(t, StateDegraded, s.State())
	})

	t.Run("after disconnect", func(t *testing.T) {
		s := newMockStream(t, &MockDialer{Conn: NewTestableConn()})
		require.NoError(t, s.Disconnect())
		assert.ErrorIs(t, s.Connect(context.Background()), ErrClosed)
	})
}

func TestStream_Send(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	t.Run("unconnected performs no I/O", func(t *testing.T) {
		conn := NewTestableConn()
		s := newMockStream(t, &MockDialer{Conn: conn})

		assert.False(t, s.Send(payload))
		assert.Zero(t, conn.Calls())
	})

	t.Run("degraded performs no I/O", func(t *testing.T) {
		s := newMockStream(t, &MockDialer{Error: errors.New("refused")})
		_ = s.Connect(context.Background())

		assert.False(t, s.Send(payload))
		assert.False(t, s.Send(payload))
	})

	t.Run("connected writes bytes and sets deadline", func(t *testing.T) {
		conn := NewTestableConn()
		s := newMockStream(t, &MockDialer{Conn: conn})
		require.NoError(t, s.Connect(context.Background()))

		before := time.Now()
		assert.True(t, s.Send(payload))
		assert.True(t, s.Send(payload))

		assert.Equal(t, append(append([]byte{}, payload...), payload...), conn.Written())
		assert.True(t, conn.Deadline.After(before))
	})

	t.Run("write error closes stream", func(t *testing.T) {
		conn := NewTestableConn()
		conn.WriteError = errors.New("broken pipe")
		s := newMockStream(t, &MockDialer{Conn: conn})
		require.NoError(t, s.Connect(context.Background()))

		assert.False(t, s.Send(payload))
		assert.Equal(t, StateClosed, s.State())
		assert.True(t, conn.IsClosed())

		conn.WriteError = nil
		assert.False(t, s.Send(payload))
		assert.Equal(t, 1, conn.Calls())
	})

	t.Run("short write closes stream", func(t *testing.T) {
		conn := NewTestableConn()
		conn.ShortWrite = true
		s := newMockStream(t, &MockDialer{Conn: conn})
		require.NoError(t, s.Connect(context.Background()))

		assert.False(t, s.Send(payload))
		assert.Equal(t, StateClosed, s.State())
	})
}

func TestStream_Disconnect(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		conn := NewTestableConn()
		s := newMockStream(t, &MockDialer{Conn: conn})
		require.NoError(t, s.Connect(context.Background()))

		require.NoError(t, s.Disconnect())
		require.NoError(t, s.Disconnect())
		assert.True(t, conn.IsClosed())
		assert.Equal(t, StateClosed, s.State())
		assert.False(t, s.Send([]byte{0}))
	})

	t.Run("never connected", func(t *testing.T) {
		s := newMockStream(t, &MockDialer{})
		assert.NoError(t, s.Disconnect())
		assert.Equal(t, StateClosed, s.State())
	})

	t.Run("close error is returned", func(t *testing.T) {
		conn := NewTestableConn()
		conn.CloseError = errors.New("busy")
		s := newMockStream(t, &MockDialer{Conn: conn})
		require.NoError(t, s.Connect(context.Background()))

		assert.Error(t, s.Disconnect())
		assert.Equal(t, StateClosed, s.State())
	})
}

func shortSocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ffb")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestPipe_NoListener(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets only")
	}

	opts := DefaultOptions()
	opts.SocketDir = shortSocketDir(t)
	s := NewPipe(Endpoint{Side: skeleton.Right}, opts, nil)

	assert.ErrorIs(t, s.Connect(context.Background()), ErrConnectFailed)
	assert.False(t, s.Send(make([]byte, 10)))
	assert.NoError(t, s.Disconnect())
}

func TestPipe_Listener(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets only")
	}

	opts := DefaultOptions()
	opts.SocketDir = shortSocketDir(t)
	ep := Endpoint{Side: skeleton.Left}
	addr := PipeAddress(opts.SocketDir, ep.Name())
	require.NoError(t, os.MkdirAll(filepath.Dir(addr), 0o755))

	ln, err := net.Listen("unix", addr)
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 10)
		if _, err := io.ReadFull(conn, buf); err == nil {
			received <- buf
		}
	}()

	s := NewPipe(ep, opts, nil)
	require.NoError(t, s.Connect(context.Background()))
	want := []byte{0xe8, 0x03, 0, 0, 0xf4, 0x01, 0, 0, 0, 0}
	require.True(t, s.Send(want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for record")
	}
	assert.NoError(t, s.Disconnect())
}
