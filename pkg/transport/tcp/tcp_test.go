package tcp

import (
    "context"
    "errors"
    "io"
    "testing"
    "time"

    "primemesh/pkg/transport"
)

func TestLoopbackExchange(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    tr := New()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()

    cli, err := tr.Dial(ctx, l.Addr().String(), transport.PeerInfo{})
    if err != nil { t.Fatalf("dial: %v", err) }
    srv, err := l.Accept(ctx)
    if err != nil { t.Fatalf("accept: %v", err) }
    defer srv.Close()

    if srv.TransportKind() != transport.KindTCP { t.Fatalf("kind = %s", srv.TransportKind()) }
    if srv.Peer().ID != transport.TempPeerID(transport.KindTCP, srv.RemoteAddr()) {
        t.Fatalf("unexpected peer id %s", srv.Peer().ID)
    }

    ss, _ := srv.OpenStream(ctx)
    cs, _ := cli.OpenStream(ctx)
    if err := ss.SendBytes([]byte("Task 4,5")); err != nil { t.Fatalf("send: %v", err) }
    got, err := cs.RecvBytes()
    if err != nil || string(got) != "Task 4,5" { t.Fatalf("recv %q: %v", got, err) }
    if err := cs.SendBytes([]byte("Answer true")); err != nil { t.Fatalf("send: %v", err) }
    got, err = ss.RecvBytes()
    if err != nil || string(got) != "Answer true" { t.Fatalf("recv %q: %v", got, err) }
    if srv.Quality().LastSeen.IsZero() { t.Fatalf("expected LastSeen to be set") }

    // closing the client surfaces as EOF on the server side
    _ = cli.Close()
    if _, err := ss.RecvBytes(); !errors.Is(err, io.EOF) {
        t.Fatalf("expected EOF after peer close, got %v", err)
    }
}

func TestAcceptHonoursContext(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    l, err := New().Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    defer l.Close()
    actx, acancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
    defer acancel()
    if _, err := l.Accept(actx); !errors.Is(err, context.DeadlineExceeded) {
        t.Fatalf("expected deadline, got %v", err)
    }
    cancel()
}

func TestCloseReleasesQueuedSessions(t *testing.T) {
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()

    tr := New()
    l, err := tr.Listen(ctx, "127.0.0.1:0")
    if err != nil { t.Fatalf("listen: %v", err) }
    cli, err := tr.Dial(ctx, l.Addr().String(), transport.PeerInfo{})
    if err != nil { t.Fatalf("dial: %v", err) }
    defer cli.Close()

    tl := l.(*listener)
    deadline := time.Now().Add(time.Second)
    for len(tl.newCh) == 0 {
        if time.Now().After(deadline) { t.Fatalf("session never queued") }
        time.Sleep(5 * time.Millisecond)
    }
    if err := l.Close(); err != nil { t.Fatalf("close: %v", err) }

    cs, _ := cli.OpenStream(ctx)
    errCh := make(chan error, 1)
    go func() { _, err := cs.RecvBytes(); errCh <- err }()
    select {
    case err := <-errCh:
        if err == nil { t.Fatalf("expected error from closed peer") }
    case <-time.After(2 * time.Second):
        t.Fatalf("queued session was not closed")
    }
}
