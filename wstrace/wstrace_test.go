package wstrace_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirebit/wswire"
	"github.com/wirebit/wswire/wstrace"
)

type stream struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (s *stream) Read(p []byte) (int, error) {
	return s.in.Read(p)
}

func (s *stream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func newDecoratedConn(t *testing.T) (*wstrace.Conn, *stream) {
	t.Helper()

	s := &stream{}
	c, err := wswire.NewConn(wswire.NewFramer(s), nil)
	require.NoError(t, err)
	return wstrace.Wrap(c, nil), s
}

func encodeFrame(t *testing.T, f wswire.Frame) []byte {
	t.Helper()

	peer := &stream{}
	fr := wswire.NewFramer(peer)
	require.NoError(t, fr.WriteFrame(f))
	require.NoError(t, fr.Flush())
	return peer.out.Bytes()
}

func TestWrap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("read", func(t *testing.T) {
		t.Parallel()

		tc, s := newDecoratedConn(t)
		s.in.Write(encodeFrame(t, wswire.NewText([]byte("Hello"))))

		typ, p, err := tc.Read(ctx)
		require.NoError(t, err)
		require.Equal(t, wswire.MessageText, typ)
		require.Equal(t, "Hello", string(p))

		_, _, err = tc.Read(ctx)
		require.Equal(t, io.EOF, err)
	})

	t.Run("readFrame", func(t *testing.T) {
		t.Parallel()

		tc, s := newDecoratedConn(t)
		s.in.Write(encodeFrame(t, wswire.NewPong([]byte("late"))))

		f, err := tc.ReadFrame(ctx)
		require.NoError(t, err)
		require.Equal(t, wswire.OpPong, f.Opcode)
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()

		tc, s := newDecoratedConn(t)
		require.NoError(t, tc.SendText(ctx, "Hello"))
		require.NoError(t, tc.SendBinary(ctx, []byte{1, 2}))
		require.NoError(t, tc.SendPing(ctx, []byte("hi")))
		require.NoError(t, tc.WriteFrame(ctx, wswire.NewPong(nil)))
		require.NotZero(t, s.out.Len())
	})

	t.Run("close", func(t *testing.T) {
		t.Parallel()

		tc, _ := newDecoratedConn(t)
		require.False(t, tc.Closed())
		require.NoError(t, tc.Close(ctx))
		require.True(t, tc.Closed())
	})

	t.Run("errorsPropagate", func(t *testing.T) {
		t.Parallel()

		tc, _ := newDecoratedConn(t)
		require.NoError(t, tc.SendClose(ctx, wswire.StatusNormalClosure, "bye"))
		require.Error(t, tc.SendPing(ctx, nil))
	})

	t.Run("unwrap", func(t *testing.T) {
		t.Parallel()

		tc, _ := newDecoratedConn(t)
		require.Equal(t, tc.Unwrap().ID(), tc.ID())
	})
}
