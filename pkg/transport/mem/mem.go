package mem

import (
    "bufio"
    "context"
    "errors"
    "fmt"
    "net"
    "sync"
    "sync/atomic"
    "time"

    "primemesh/pkg/transport"
)

// Transport is an in-process transport using net.Pipe. Useful for tests and
// for running master and workers inside one process.
type Transport struct {
    mu        sync.Mutex
    listeners map[string]*listener
    seq       atomic.Uint64
}

func New() *Transport { return &Transport{listeners: make(map[string]*listener)} }

func (t *Transport) Kind() transport.Kind { return transport.KindMem }

func (t *Transport) Listen(ctx context.Context, name string) (transport.Listener, error) {
    t.mu.Lock(); defer t.mu.Unlock()
    if _, ok := t.listeners[name]; ok {
        return nil, errors.New("mem: listener already exists")
    }
    l := &listener{name: name, newCh: make(chan *session, 64), closeCh: make(chan struct{})}
    l.onClose = func() { t.mu.Lock(); delete(t.listeners, name); t.mu.Unlock() }
    t.listeners[name] = l
    go func() {
        select {
        case <-ctx.Done():
            _ = l.Close()
        case <-l.closeCh:
        }
    }()
    return l, nil
}

func (t *Transport) Dial(ctx context.Context, name string, peer transport.PeerInfo) (transport.Session, error) {
    t.mu.Lock(); l := t.listeners[name]; t.mu.Unlock()
    if l == nil { return nil, errors.New("mem: no such listener") }
    if peer.ID == "" { peer.ID = transport.PeerID(fmt.Sprintf("temp:mem:%s#%d", name, t.seq.Add(1))) }
    if peer.Addr == "" { peer.Addr = name }
    c1, c2 := net.Pipe()
    // server side session goes to listener
    srv := newSession(transport.PeerInfo{ID: peer.ID, Addr: string(peer.ID)}, c1)
    cli := newSession(peer, c2)
    select {
    case l.newCh <- srv:
    case <-l.closeCh:
        _ = srv.Close(); _ = cli.Close()
        return nil, errors.New("mem listener closed")
    case <-ctx.Done():
        _ = srv.Close(); _ = cli.Close()
        return nil, ctx.Err()
    }
    // Close may have drained before this send landed
    select {
    case <-l.closeCh:
        l.drain()
    default:
    }
    return cli, nil
}

type listener struct {
    name    string
    newCh   chan *session
    closeCh chan struct{}
    once    sync.Once
    onClose func()
}

func (l *listener) Addr() net.Addr { return memAddr(l.name) }

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("mem listener closed")
    case s := <-l.newCh:
        return s, nil
    }
}

// Close stops accepting and closes sessions that were queued but never
// handed out by Accept.
func (l *listener) Close() error {
    l.once.Do(func() {
        close(l.closeCh)
        if l.onClose != nil { l.onClose() }
    })
    l.drain()
    return nil
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

type memAddr string
func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

func newSession(pi transport.PeerInfo, c net.Conn) *session {
    return &session{peer: pi, c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c), establishedAt: time.Now()}
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
func (s *session) TransportKind() transport.Kind { return transport.KindMem }
func (s *session) LocalAddr() net.Addr { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr { return memAddr(s.peer.Addr) }

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
