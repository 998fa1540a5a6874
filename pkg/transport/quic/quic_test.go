package quic

import (
    "context"
    "errors"
    "io"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "primemesh/pkg/transport"
)

func TestLoopbackExchange(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    tr := New()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    require.NoError(t, err)
    defer l.Close()

    cli, err := tr.Dial(ctx, l.Addr().String(), transport.PeerInfo{})
    require.NoError(t, err)
    require.Equal(t, transport.KindQUIC, cli.TransportKind())
    srv, err := l.Accept(ctx)
    require.NoError(t, err)

    // the listener side speaks first
    sst, err := srv.OpenStream(ctx)
    require.NoError(t, err)
    require.NoError(t, sst.SendBytes([]byte("Task 2,3")))

    cst, err := cli.OpenStream(ctx)
    require.NoError(t, err)
    line, err := cst.RecvBytes()
    require.NoError(t, err)
    require.Equal(t, "Task 2,3", string(line))

    require.NoError(t, cst.SendBytes([]byte("Answer false")))
    line, err = sst.RecvBytes()
    require.NoError(t, err)
    require.Equal(t, "Answer false", string(line))
    require.False(t, srv.Quality().LastSeen.IsZero())

    again, err := srv.OpenStream(ctx)
    require.NoError(t, err)
    require.Same(t, sst, again)
}

func TestRemoteCloseIsEOF(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    tr := New()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    require.NoError(t, err)
    defer l.Close()

    cli, err := tr.Dial(ctx, l.Addr().String(), transport.PeerInfo{})
    require.NoError(t, err)
    srv, err := l.Accept(ctx)
    require.NoError(t, err)
    sst, err := srv.OpenStream(ctx)
    require.NoError(t, err)
    require.NoError(t, sst.SendBytes([]byte("Terminate")))
    cst, err := cli.OpenStream(ctx)
    require.NoError(t, err)
    _, err = cst.RecvBytes()
    require.NoError(t, err)

    require.NoError(t, cst.Close())
    _, err = sst.RecvBytes()
    require.Error(t, err)
    require.True(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
}
