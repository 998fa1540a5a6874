// Package peer holds the master's view of connected workers.
package peer

import (
    "context"

    "primemesh/pkg/protocol"
    "primemesh/pkg/protocol/stream"
    "primemesh/pkg/transport"
)

// Conn is what the scheduler needs from a peer: an identity and a duplex
// command channel.
type Conn interface {
    ID() transport.PeerID
    Send(protocol.Command) error
    Recv() (protocol.Command, error)
    Close() error
}

// Handle owns the session and channel of one connected peer.
type Handle struct {
    id   transport.PeerID
    addr string
    sess transport.Session
    ch   *stream.Conn
}

// NewHandle opens the session's stream and wraps it in a peer channel.
func NewHandle(ctx context.Context, sess transport.Session) (*Handle, error) {
    st, err := sess.OpenStream(ctx)
    if err != nil { return nil, err }
    pi := sess.Peer()
    return &Handle{id: pi.ID, addr: pi.Addr, sess: sess, ch: stream.New(st)}, nil
}

func (h *Handle) ID() transport.PeerID { return h.id }
func (h *Handle) Addr() string { return h.addr }

func (h *Handle) Send(cmd protocol.Command) error { return h.ch.Send(cmd) }
func (h *Handle) Recv() (protocol.Command, error) { return h.ch.Recv() }

// Close closes the session, which also unblocks a pending Recv.
func (h *Handle) Close() error { return h.sess.Close() }
