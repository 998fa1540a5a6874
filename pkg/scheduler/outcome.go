package scheduler

import "primemesh/pkg/transport"

// Outcome is what an execution unit reports back for one assigned chunk:
// either Success or PeerFailure.
type Outcome interface{ outcome() }

// Success carries a well-formed Answer.
type Success struct {
    Peer      transport.PeerID
    Chunk     Chunk
    Composite bool
}

// PeerFailure means the chunk's verdict is unknown and the peer is unusable.
type PeerFailure struct {
    Peer  transport.PeerID
    Chunk Chunk
    Err   error
}

func (Success) outcome()     {}
func (PeerFailure) outcome() {}
