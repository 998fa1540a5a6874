// Package peers keeps per-job statistics about every peer the master drove.
package peers

import (
    "sort"
    "sync"
    "time"

    "go.uber.org/zap"

    "primemesh/pkg/transport"
)

type State uint8

const (
    StateIdle State = iota
    StateBusy
    StateLost
)

func (s State) String() string {
    switch s {
    case StateIdle:
        return "idle"
    case StateBusy:
        return "busy"
    case StateLost:
        return "lost"
    default:
        return "unknown"
    }
}

// Stats is a snapshot of one peer's counters.
type Stats struct {
    ID          transport.PeerID `json:"id"`
    Addr        string           `json:"addr,omitempty"`
    State       State            `json:"state"`
    Assigned    int              `json:"assigned"`
    Answered    int              `json:"answered"`
    Failures    int              `json:"failures"`
    LastError   string           `json:"last_error,omitempty"`
    ConnectedAt time.Time        `json:"connected_at"`
    LastSeen    time.Time        `json:"last_seen"`
}

// Store is an in-memory peer stats table. Safe for concurrent use.
type Store struct {
    mu    sync.RWMutex
    peers map[transport.PeerID]*Stats
    nowFn func() time.Time
}

func NewStore() *Store { return &Store{peers: make(map[transport.PeerID]*Stats), nowFn: time.Now} }

func (s *Store) get(id transport.PeerID) *Stats {
    st := s.peers[id]
    if st == nil {
        now := s.nowFn()
        st = &Stats{ID: id, ConnectedAt: now, LastSeen: now}
        s.peers[id] = st
    }
    return st
}

// Connected registers a peer as idle.
func (s *Store) Connected(id transport.PeerID, addr string) {
    s.mu.Lock()
    st := s.get(id)
    st.Addr = addr
    st.State = StateIdle
    s.mu.Unlock()
    zap.L().Debug("peer connected", zap.String("peer", string(id)), zap.String("addr", addr))
}

// Assigned marks the peer busy with one more chunk.
func (s *Store) Assigned(id transport.PeerID, chunk int) {
    s.mu.Lock()
    st := s.get(id)
    st.Assigned++
    st.State = StateBusy
    s.mu.Unlock()
    zap.L().Debug("peer assigned", zap.String("peer", string(id)), zap.Int("chunk", chunk))
}

// Answered records a reply and returns the peer to idle.
func (s *Store) Answered(id transport.PeerID, composite bool) {
    s.mu.Lock()
    st := s.get(id)
    st.Answered++
    st.State = StateIdle
    st.LastSeen = s.nowFn()
    s.mu.Unlock()
    zap.L().Debug("peer answered", zap.String("peer", string(id)), zap.Bool("composite", composite))
}

// Lost marks the peer as permanently gone.
func (s *Store) Lost(id transport.PeerID, err error) {
    s.mu.Lock()
    st := s.get(id)
    st.Failures++
    st.State = StateLost
    if err != nil { st.LastError = err.Error() }
    s.mu.Unlock()
    zap.L().Debug("peer lost", zap.String("peer", string(id)), zap.Error(err))
}

func (s *Store) Get(id transport.PeerID) (Stats, bool) {
    s.mu.RLock(); defer s.mu.RUnlock()
    st, ok := s.peers[id]
    if !ok { return Stats{}, false }
    return *st, true
}

// List returns all peers ordered by connection time, then id.
func (s *Store) List() []Stats {
    s.mu.RLock()
    out := make([]Stats, 0, len(s.peers))
    for _, st := range s.peers { out = append(out, *st) }
    s.mu.RUnlock()
    sort.Slice(out, func(i, j int) bool {
        if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) { return out[i].ConnectedAt.Before(out[j].ConnectedAt) }
        return out[i].ID < out[j].ID
    })
    return out
}

// Count returns how many peers are in state st.
func (s *Store) Count(st State) int {
    s.mu.RLock(); defer s.mu.RUnlock()
    n := 0
    for _, p := range s.peers { if p.State == st { n++ } }
    return n
}
