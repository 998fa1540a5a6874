package tcp

import (
    "bufio"
    "context"
    "errors"
    "net"
    "sync"
    "sync/atomic"
    "time"

    "primemesh/pkg/transport"
)

// Transport implements a stream-based TCP transport with newline-terminated frames.
type Transport struct{}

func New() *Transport { return &Transport{} }

func (t *Transport) Kind() transport.Kind { return transport.KindTCP }

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
    l, err := net.Listen("tcp", address)
    if err != nil { return nil, err }
    tl := &listener{l: l, newCh: make(chan *session, 64), closeCh: make(chan struct{})}
    go tl.acceptLoop()
    go func() {
        select {
        case <-ctx.Done():
            _ = tl.Close()
        case <-tl.closeCh:
        }
    }()
    return tl, nil
}

func (t *Transport) Dial(ctx context.Context, address string, peer transport.PeerInfo) (transport.Session, error) {
    d := &net.Dialer{}
    c, err := d.DialContext(ctx, "tcp", address)
    if err != nil { return nil, err }
    if peer.ID == "" { peer.ID = transport.TempPeerID(transport.KindTCP, c.RemoteAddr()) }
    if peer.Addr == "" { peer.Addr = address }
    return newSession(peer, c), nil
}

type listener struct {
    l       net.Listener
    newCh   chan *session
    closeCh chan struct{}
    once    sync.Once
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("tcp listener closed")
    case s := <-l.newCh:
        return s, nil
    }
}

// Close stops accepting and closes sessions that were queued but never
// handed out by Accept.
func (l *listener) Close() error {
    var err error
    l.once.Do(func() { close(l.closeCh); err = l.l.Close() })
    l.drain()
    return err
}

func (l *listener) drain() {
    for {
        select {
        case s := <-l.newCh:
            _ = s.Close()
        default:
            return
        }
    }
}

func (l *listener) acceptLoop() {
    for {
        c, err := l.l.Accept()
        if err != nil { return }
        pi := transport.PeerInfo{ID: transport.TempPeerID(transport.KindTCP, c.RemoteAddr()), Addr: c.RemoteAddr().String()}
        s := newSession(pi, c)
        select {
        case <-l.closeCh:
            _ = s.Close()
            return
        case l.newCh <- s:
        }
        // Close may have drained before this send landed
        select {
        case <-l.closeCh:
            l.drain()
            return
        default:
        }
    }
}

func newSession(pi transport.PeerInfo, c net.Conn) *session {
    return &session{
        peer:          pi,
        c:             c,
        br:            bufio.NewReader(c),
        bw:            bufio.NewWriter(c),
        establishedAt: time.Now(),
    }
}

type session struct {
    wmu  sync.Mutex
    peer transport.PeerInfo
    c    net.Conn
    br   *bufio.Reader
    bw   *bufio.Writer
    establishedAt time.Time
    lastSeen      atomic.Int64 // unix nanos
}

func (s *session) Peer() transport.PeerInfo { return s.peer }
func (s *session) TransportKind() transport.Kind { return transport.KindTCP }
func (s *session) LocalAddr() net.Addr { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

func (s *session) OpenStream(_ context.Context) (transport.Stream, error) { return s, nil }
func (s *session) Quality() transport.Quality {
    q := transport.Quality{EstablishedAt: s.establishedAt}
    if ns := s.lastSeen.Load(); ns != 0 { q.LastSeen = time.Unix(0, ns) }
    return q
}
func (s *session) Close() error { return s.c.Close() }

// Stream methods: newline-terminated frames
func (s *session) SendBytes(b []byte) error {
    s.wmu.Lock(); defer s.wmu.Unlock()
    if err := transport.WriteLine(s.bw, b); err != nil { return err }
    s.lastSeen.Store(time.Now().UnixNano()); return nil
}

func (s *session) RecvBytes() ([]byte, error) {
    line, err := transport.ReadLine(s.br)
    if err != nil { return nil, err }
    s.lastSeen.Store(time.Now().UnixNano())
    return line, nil
}
