package peer

import (
    "errors"
    "sync"

    "go.uber.org/multierr"

    "primemesh/pkg/transport"
)

var ErrDuplicatePeer = errors.New("peer already registered")

// Registry keeps exactly one Conn per peer id, in join order.
type Registry struct {
    mu    sync.RWMutex
    peers map[transport.PeerID]Conn
    order []transport.PeerID
}

func NewRegistry() *Registry { return &Registry{peers: make(map[transport.PeerID]Conn)} }

// Add registers c. A second conn for an id that is already present is
// rejected and closed.
func (r *Registry) Add(c Conn) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if _, ok := r.peers[c.ID()]; ok {
        _ = c.Close()
        return ErrDuplicatePeer
    }
    r.peers[c.ID()] = c
    r.order = append(r.order, c.ID())
    return nil
}

// Get returns the conn registered for id.
func (r *Registry) Get(id transport.PeerID) (Conn, bool) {
    r.mu.RLock(); defer r.mu.RUnlock()
    c, ok := r.peers[id]
    return c, ok
}

// Remove drops the peer and closes its conn. Removing an unknown id is a no-op.
func (r *Registry) Remove(id transport.PeerID) error {
    r.mu.Lock()
    c, ok := r.peers[id]
    if ok {
        delete(r.peers, id)
        for i, v := range r.order {
            if v == id { r.order = append(r.order[:i], r.order[i+1:]...); break }
        }
    }
    r.mu.Unlock()
    if !ok { return nil }
    return c.Close()
}

// List returns the registered conns in join order.
func (r *Registry) List() []Conn {
    r.mu.RLock(); defer r.mu.RUnlock()
    out := make([]Conn, 0, len(r.order))
    for _, id := range r.order { out = append(out, r.peers[id]) }
    return out
}

func (r *Registry) Len() int {
    r.mu.RLock(); defer r.mu.RUnlock()
    return len(r.peers)
}

// CloseAll closes and forgets every peer, returning the combined close errors.
func (r *Registry) CloseAll() error {
    r.mu.Lock()
    conns := make([]Conn, 0, len(r.order))
    for _, id := range r.order { conns = append(conns, r.peers[id]) }
    r.peers = make(map[transport.PeerID]Conn)
    r.order = nil
    r.mu.Unlock()

    var err error
    for _, c := range conns { err = multierr.Append(err, c.Close()) }
    return err
}
