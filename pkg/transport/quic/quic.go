package quic

import (
    "bufio"
    "context"
    "crypto/rand"
    "crypto/rsa"
    "crypto/tls"
    "crypto/x509"
    "errors"
    "io"
    "math/big"
    "net"
    "sync"
    "sync/atomic"
    "time"

    quicgo "github.com/quic-go/quic-go"

    "primemesh/pkg/transport"
)

const alpn = "primemesh"

// Transport implements QUIC-based sessions carrying one bidirectional stream
// with newline-terminated frames.
//
// The listener side opens the stream and the dialer accepts it: the master
// (listener) always speaks first, and a QUIC stream only becomes visible to
// the remote end once data has been written on it.
type Transport struct {
    tlsConf  *tls.Config
    quicConf *quicgo.Config
    certErr  error
}

func New() *Transport {
    // Generate an ephemeral self-signed certificate for server side.
    cert, err := selfSignedCert()
    tlsConf := &tls.Config{
        Certificates: []tls.Certificate{cert},
        NextProtos:   []string{alpn},
        MinVersion:   tls.VersionTLS13,
    }
    qconf := &quicgo.Config{KeepAlivePeriod: 10 * time.Second}
    return &Transport{tlsConf: tlsConf, quicConf: qconf, certErr: err}
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
    if t.certErr != nil { return nil, t.certErr }
    l, err := quicgo.ListenAddr(address, t.tlsConf, t.quicConf)
    if err != nil { return nil, err }
    ql := &listener{l: l, newCh: make(chan *session, 64), closeCh: make(chan struct{})}
    go ql.acceptLoop(ctx)
    go func() {
        select {
        case <-ctx.Done():
            _ = ql.Close()
        case <-ql.closeCh:
        }
    }()
    return ql, nil
}

func (t *Transport) Dial(ctx context.Context, address string, peer transport.PeerInfo) (transport.Session, error) {
    // Peers are not authenticated; the certificate is only there to satisfy TLS 1.3.
    tlsClient := &tls.Config{
        InsecureSkipVerify: true,
        NextProtos:         []string{alpn},
        MinVersion:         tls.VersionTLS13,
    }
    c, err := quicgo.DialAddr(ctx, address, tlsClient, t.quicConf)
    if err != nil { return nil, err }
    if peer.ID == "" { peer.ID = transport.TempPeerID(transport.KindQUIC, c.RemoteAddr()) }
    if peer.Addr == "" { peer.Addr = address }
    return &session{peer: peer, c: c, establishedAt: time.Now()}, nil
}

// ---- Listener ----

type listener struct {
    l       *quicgo.Listener
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
        return nil, errors.New("quic listener closed")
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

func (l *listener) acceptLoop(ctx context.Context) {
    for {
        c, err := l.l.Accept(ctx)
        if err != nil { return }
        raddr := c.RemoteAddr()
        s := &session{
            peer:          transport.PeerInfo{ID: transport.TempPeerID(transport.KindQUIC, raddr), Addr: raddr.String()},
            c:             c,
            inbound:       true,
            establishedAt: time.Now(),
        }
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

// ---- Session/Stream ----

type session struct {
    peer    transport.PeerInfo
    c       quicgo.Connection
    inbound bool

    establishedAt time.Time
    lastSeen      atomic.Int64

    mu  sync.Mutex
    st  *qstream
}

func (s *session) Peer() transport.PeerInfo { return s.peer }
func (s *session) TransportKind() transport.Kind { return transport.KindQUIC }
func (s *session) LocalAddr() net.Addr { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.st != nil { return s.st, nil }
    var (
        qs  quicgo.Stream
        err error
    )
    if s.inbound {
        qs, err = s.c.OpenStreamSync(ctx)
    } else {
        qs, err = s.c.AcceptStream(ctx)
    }
    if err != nil { return nil, err }
    s.st = &qstream{qs: qs, br: bufio.NewReader(qs), bw: bufio.NewWriter(qs), parent: s}
    return s.st, nil
}

func (s *session) Quality() transport.Quality {
    q := transport.Quality{EstablishedAt: s.establishedAt}
    if ns := s.lastSeen.Load(); ns != 0 { q.LastSeen = time.Unix(0, ns) }
    return q
}

func (s *session) Close() error { return s.c.CloseWithError(0, "") }

// qstream implements transport.Stream over a QUIC bidirectional stream.
type qstream struct {
    wmu    sync.Mutex
    qs     quicgo.Stream
    br     *bufio.Reader
    bw     *bufio.Writer
    parent *session
}

func (st *qstream) SendBytes(b []byte) error {
    st.wmu.Lock(); defer st.wmu.Unlock()
    if err := transport.WriteLine(st.bw, b); err != nil { return err }
    st.parent.lastSeen.Store(time.Now().UnixNano())
    return nil
}

func (st *qstream) RecvBytes() ([]byte, error) {
    line, err := transport.ReadLine(st.br)
    if err != nil { return nil, closedAsEOF(err) }
    st.parent.lastSeen.Store(time.Now().UnixNano())
    return line, nil
}

// closedAsEOF reports a connection closed by the remote application or by
// idle timeout as end-of-stream, matching what tcp and mem report.
func closedAsEOF(err error) error {
    var appErr *quicgo.ApplicationError
    if errors.As(err, &appErr) { return io.EOF }
    var idleErr *quicgo.IdleTimeoutError
    if errors.As(err, &idleErr) { return io.ErrUnexpectedEOF }
    return err
}

// Close tears down the whole connection so a blocked RecvBytes returns.
func (st *qstream) Close() error { return st.parent.Close() }

// ---- Helpers ----

// selfSignedCert generates a short-lived self-signed TLS certificate for local QUIC use.
func selfSignedCert() (tls.Certificate, error) {
    priv, err := rsa.GenerateKey(rand.Reader, 2048)
    if err != nil { return tls.Certificate{}, err }
    tmpl := x509.Certificate{
        SerialNumber: big.NewInt(time.Now().UnixNano()),
        NotBefore:    time.Now().Add(-time.Minute),
        NotAfter:     time.Now().Add(24 * time.Hour),
        KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
        ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
        BasicConstraintsValid: true,
        DNSNames:     []string{"localhost"},
    }
    der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
    if err != nil { return tls.Certificate{}, err }
    return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
