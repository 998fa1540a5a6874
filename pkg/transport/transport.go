package transport

import (
    "context"
    "net"
    "time"
)

// Kind identifies transport/link type.
type Kind int

const (
    KindUnknown Kind = iota
    KindTCP
    KindQUIC
    KindMem
)

func (k Kind) String() string {
    switch k {
    case KindTCP:
        return "tcp"
    case KindQUIC:
        return "quic"
    case KindMem:
        return "mem"
    default:
        return "unknown"
    }
}

// PeerID is an address-derived peer identity (see TempPeerID).
type PeerID string

// PeerInfo bundles peer identity and addressing hints.
type PeerInfo struct {
    ID   PeerID
    Addr string // transport-dependent address string
}

// Quality is a liveness snapshot of a session.
type Quality struct {
    EstablishedAt time.Time
    LastSeen      time.Time
}

// Stream is a bidirectional line stream.
// One reader goroutine is expected; SendBytes may be called from several
// goroutines and is serialized by the implementation.
type Stream interface {
    // SendBytes writes b followed by a line terminator. b must not contain '\n'.
    SendBytes([]byte) error
    // RecvBytes returns the next line without its terminator.
    RecvBytes() ([]byte, error)
    Close() error
}

// Session represents a connection to one peer.
type Session interface {
    Peer() PeerInfo
    TransportKind() Kind
    LocalAddr() net.Addr
    RemoteAddr() net.Addr

    // OpenStream returns the session's duplex stream. Repeated calls return
    // the same stream.
    OpenStream(ctx context.Context) (Stream, error)

    // Quality snapshot for monitoring.
    Quality() Quality

    // Close closes the entire session.
    Close() error
}

// Listener accepts inbound sessions.
type Listener interface {
    // Accept blocks until an inbound session is available or ctx is done.
    Accept(ctx context.Context) (Session, error)
    // Addr returns the local listening address.
    Addr() net.Addr
    // Close stops the listener and unblocks Accept.
    Close() error
}

// Transport provides dialing/listening for a specific link kind.
type Transport interface {
    Kind() Kind
    // Listen starts accepting inbound sessions on address (transport-specific format).
    Listen(ctx context.Context, address string) (Listener, error)
    // Dial creates an outbound session to a peer/address.
    Dial(ctx context.Context, address string, peer PeerInfo) (Session, error)
}
