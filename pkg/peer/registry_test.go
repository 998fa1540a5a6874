package peer

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "go.uber.org/multierr"

    "primemesh/pkg/protocol"
    "primemesh/pkg/transport"
    "primemesh/pkg/transport/mem"
)

type stubConn struct {
    id       transport.PeerID
    closed   int
    closeErr error
}

func (s *stubConn) ID() transport.PeerID { return s.id }
func (s *stubConn) Send(protocol.Command) error { return nil }
func (s *stubConn) Recv() (protocol.Command, error) { return protocol.Command{}, nil }
func (s *stubConn) Close() error { s.closed++; return s.closeErr }

func TestRegistryRejectsDuplicate(t *testing.T) {
    r := NewRegistry()
    a := &stubConn{id: "temp:tcp:10.0.0.2:4000"}
    dup := &stubConn{id: "temp:tcp:10.0.0.2:4000"}
    require.NoError(t, r.Add(a))
    require.ErrorIs(t, r.Add(dup), ErrDuplicatePeer)
    require.Equal(t, 1, dup.closed)
    require.Equal(t, 0, a.closed)
    require.Equal(t, 1, r.Len())
}

func TestRegistryRemoveKeepsOrder(t *testing.T) {
    r := NewRegistry()
    a, b, c := &stubConn{id: "a"}, &stubConn{id: "b"}, &stubConn{id: "c"}
    for _, x := range []*stubConn{a, b, c} { require.NoError(t, r.Add(x)) }

    require.NoError(t, r.Remove("b"))
    require.Equal(t, 1, b.closed)
    require.NoError(t, r.Remove("b"))
    require.Equal(t, 1, b.closed, "second remove must not close again")

    ids := []transport.PeerID{}
    for _, x := range r.List() { ids = append(ids, x.ID()) }
    require.Equal(t, []transport.PeerID{"a", "c"}, ids)
    _, ok := r.Get("b")
    require.False(t, ok)
}

func TestRegistryCloseAllAggregatesErrors(t *testing.T) {
    r := NewRegistry()
    e1, e2 := errors.New("one"), errors.New("two")
    require.NoError(t, r.Add(&stubConn{id: "a", closeErr: e1}))
    require.NoError(t, r.Add(&stubConn{id: "b"}))
    require.NoError(t, r.Add(&stubConn{id: "c", closeErr: e2}))

    err := r.CloseAll()
    require.Len(t, multierr.Errors(err), 2)
    require.ErrorIs(t, err, e1)
    require.ErrorIs(t, err, e2)
    require.Equal(t, 0, r.Len())
}

func TestHandleOverMemSession(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    tr := mem.New()
    l, err := tr.Listen(ctx, "master")
    require.NoError(t, err)
    cli, err := tr.Dial(ctx, "master", transport.PeerInfo{})
    require.NoError(t, err)
    srv, err := l.Accept(ctx)
    require.NoError(t, err)

    h, err := NewHandle(ctx, srv)
    require.NoError(t, err)
    require.Equal(t, cli.Peer().ID, h.ID())

    cs, _ := cli.OpenStream(ctx)
    go func() { _ = h.Send(protocol.Task([]int64{9})) }()
    line, err := cs.RecvBytes()
    require.NoError(t, err)
    require.Equal(t, "Task 9", string(line))

    sent := make(chan error, 1)
    go func() { sent <- cs.SendBytes([]byte("Answer true")) }()
    cmd, err := h.Recv()
    require.NoError(t, err)
    require.True(t, cmd.Composite)
    require.NoError(t, <-sent)

    require.NoError(t, h.Close())
}
