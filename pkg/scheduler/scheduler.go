// Package scheduler is the master side of a job: it partitions the input
// across the connected peers, dispatches chunks, consumes answers in
// completion order, requeues chunks from failed peers and stops at the first
// composite answer.
package scheduler

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/panjf2000/ants/v2"
    "go.uber.org/zap"

    "primemesh/pkg/core/taskq"
    "primemesh/pkg/peer"
    "primemesh/pkg/peers"
    "primemesh/pkg/protocol"
    "primemesh/pkg/transport"
)

var (
    // ErrNoPeers is returned by Run when the scheduler was built without peers.
    ErrNoPeers = errors.New("no workers available")
    // ErrNoPeersLeft means every peer failed before all chunks were resolved.
    ErrNoPeersLeft = errors.New("no peers left")
    // ErrUnexpectedReply is the failure recorded when a peer answers a Task
    // with anything but Answer.
    ErrUnexpectedReply = errors.New("unexpected reply")
)

type Scheduler struct {
    jobID uuid.UUID
    reg   *peer.Registry
    n     int
    log   *zap.Logger
    stats *peers.Store
}

type Option func(*Scheduler)

func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithStats records per-peer progress into st.
func WithStats(st *peers.Store) Option { return func(s *Scheduler) { s.stats = st } }

// WithJobID overrides the generated job id.
func WithJobID(id uuid.UUID) Option { return func(s *Scheduler) { s.jobID = id } }

// New takes ownership of conns: they are closed when Run returns. A conn whose
// id is already registered is closed and skipped.
func New(conns []peer.Conn, opts ...Option) *Scheduler {
    s := &Scheduler{jobID: uuid.New(), reg: peer.NewRegistry(), log: zap.L()}
    for _, o := range opts { o(s) }
    if s.stats == nil { s.stats = peers.NewStore() }
    s.log = s.log.With(zap.String("job", s.jobID.String()))
    for _, c := range conns {
        if err := s.reg.Add(c); err != nil {
            s.log.Warn("duplicate peer dropped", zap.String("peer", string(c.ID())))
            continue
        }
        s.stats.Connected(c.ID(), addrOf(c))
    }
    s.n = s.reg.Len()
    return s
}

func (s *Scheduler) JobID() uuid.UUID { return s.jobID }

// Run decides values. It returns the verdict in Report, or ErrNoPeers,
// ErrNoPeersLeft or ctx.Err(). Every peer is sent Terminate and closed before
// Run returns, whatever the result. Run must be called at most once.
func (s *Scheduler) Run(ctx context.Context, values []int64) (Report, error) {
    start := time.Now()
    rep := Report{JobID: s.jobID, Peers: s.n}
    if s.n == 0 { return rep, ErrNoPeers }

    pool, err := ants.NewPool(s.n, ants.WithPanicHandler(func(p any) {
        s.log.Error("task panicked", zap.Any("panic", p))
    }))
    if err != nil {
        s.shutdown()
        return rep, fmt.Errorf("execution pool: %w", err)
    }
    defer func() {
        s.shutdown()
        // in-flight tasks are abandoned; closing their peers unblocks them
        pool.Release()
    }()

    chunks, err := Partition(values, s.n)
    if err != nil { return rep, err }
    rep.Chunks = len(chunks)
    s.log.Info("job started", zap.Int("values", len(values)), zap.Int("peers", s.n))

    d := &dispatch{
        s:        s,
        pool:     pool,
        pending:  taskq.New(chunks...),
        idle:     taskq.New(s.reg.List()...),
        inflight: make(map[transport.PeerID]Chunk, s.n),
        done:     make(chan Outcome, s.n),
    }
    verdict, err := d.loop(ctx, len(chunks))
    rep.Resolved = d.resolved
    rep.Lost = d.lost
    rep.Verdict = verdict
    rep.Elapsed = time.Since(start)
    if err != nil {
        s.log.Error("job failed", zap.Error(err), zap.Object("report", rep))
        return rep, err
    }
    s.log.Info("job finished", zap.Object("report", rep))
    return rep, nil
}

// dispatch is the scheduler goroutine's state. Only loop and assign touch it.
type dispatch struct {
    s        *Scheduler
    pool     *ants.Pool
    pending  *taskq.Queue[Chunk]
    idle     *taskq.Queue[peer.Conn]
    inflight map[transport.PeerID]Chunk
    done     chan Outcome
    resolved int
    lost     []transport.PeerID
}

func (d *dispatch) loop(ctx context.Context, total int) (Verdict, error) {
    if err := d.assign(); err != nil { return VerdictUndecided, err }
    for {
        if d.resolved == total { return VerdictAllPrime, nil }
        if len(d.inflight) == 0 {
            return VerdictUndecided, fmt.Errorf("%w: %d of %d chunks unresolved", ErrNoPeersLeft, total-d.resolved, total)
        }
        var out Outcome
        select {
        case <-ctx.Done():
            return VerdictUndecided, ctx.Err()
        case out = <-d.done:
        }
        switch o := out.(type) {
        case Success:
            delete(d.inflight, o.Peer)
            d.s.stats.Answered(o.Peer, o.Composite)
            d.s.log.Info("peer answered", zap.String("peer", string(o.Peer)), zap.Int("chunk", o.Chunk.Index), zap.Bool("composite", o.Composite))
            if o.Composite {
                d.s.log.Info("composite found", zap.String("peer", string(o.Peer)), zap.Int("chunk", o.Chunk.Index))
                return VerdictComposite, nil
            }
            d.resolved++
            if c, ok := d.s.reg.Get(o.Peer); ok { d.idle.PushBack(c) }
        case PeerFailure:
            delete(d.inflight, o.Peer)
            d.pending.PushBack(o.Chunk)
            d.lost = append(d.lost, o.Peer)
            d.s.stats.Lost(o.Peer, o.Err)
            d.s.log.Warn("peer lost, chunk requeued", zap.String("peer", string(o.Peer)), zap.Int("chunk", o.Chunk.Index), zap.Error(o.Err))
            if err := d.s.reg.Remove(o.Peer); err != nil {
                d.s.log.Debug("close lost peer", zap.String("peer", string(o.Peer)), zap.Error(err))
            }
        }
        if err := d.assign(); err != nil { return VerdictUndecided, err }
    }
}

// assign pairs pending chunks with idle peers while both remain.
func (d *dispatch) assign() error {
    for d.pending.Len() > 0 && d.idle.Len() > 0 {
        c, _ := d.pending.PopFront()
        p, _ := d.idle.PopFront()
        d.inflight[p.ID()] = c
        d.s.stats.Assigned(p.ID(), c.Index)
        d.s.log.Debug("chunk assigned", zap.String("peer", string(p.ID())), zap.Int("chunk", c.Index), zap.Int("values", len(c.Values)))
        if err := d.pool.Submit(func() { d.done <- execute(p, c) }); err != nil {
            delete(d.inflight, p.ID())
            d.pending.PushBack(c)
            return fmt.Errorf("submit chunk %d: %w", c.Index, err)
        }
    }
    return nil
}

// execute runs on a pool goroutine: one Task, one reply.
func execute(p peer.Conn, c Chunk) (out Outcome) {
    defer func() {
        if r := recover(); r != nil {
            out = PeerFailure{Peer: p.ID(), Chunk: c, Err: fmt.Errorf("task panicked: %v", r)}
        }
    }()
    if err := p.Send(protocol.Task(c.Values)); err != nil {
        return PeerFailure{Peer: p.ID(), Chunk: c, Err: fmt.Errorf("send task: %w", err)}
    }
    reply, err := p.Recv()
    if err != nil {
        return PeerFailure{Peer: p.ID(), Chunk: c, Err: fmt.Errorf("recv answer: %w", err)}
    }
    if reply.Kind != protocol.KindAnswer {
        return PeerFailure{Peer: p.ID(), Chunk: c, Err: fmt.Errorf("%w: %s", ErrUnexpectedReply, reply.Kind)}
    }
    return Success{Peer: p.ID(), Chunk: c, Composite: reply.Composite}
}

// terminateGrace bounds how long shutdown waits for Terminate writes before
// closing peers anyway. Closing unblocks writes stuck on a wedged peer.
const terminateGrace = 2 * time.Second

// shutdown sends Terminate to every registered peer and closes them all.
func (s *Scheduler) shutdown() {
    conns := s.reg.List()
    var wg sync.WaitGroup
    for _, c := range conns {
        wg.Add(1)
        go func(c peer.Conn) {
            defer wg.Done()
            if err := c.Send(protocol.Terminate()); err != nil {
                s.log.Debug("terminate not delivered", zap.String("peer", string(c.ID())), zap.Error(err))
            }
        }(c)
    }
    sent := make(chan struct{})
    go func() { wg.Wait(); close(sent) }()
    select {
    case <-sent:
    case <-time.After(terminateGrace):
        s.log.Warn("terminate timed out, closing peers")
    }
    if err := s.reg.CloseAll(); err != nil {
        s.log.Warn("closing peers", zap.Error(err))
    }
}

func addrOf(c peer.Conn) string {
    if a, ok := c.(interface{ Addr() string }); ok { return a.Addr() }
    return ""
}
