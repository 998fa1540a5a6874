package netstack

import (
    "context"
    "errors"
    "time"

    "go.uber.org/zap"

    "primemesh/pkg/transport"
)

// Window bounds an accept phase.
type Window struct {
    // Idle ends the phase when no session arrives for this long. Every accepted
    // session restarts the timer.
    Idle time.Duration
    // MaxPeers ends the phase once reached; 0 means unbounded.
    MaxPeers int
}

// AcceptWindow accepts sessions from l until the window goes idle, MaxPeers is
// reached or ctx ends. Sessions accepted so far are returned in every case;
// the error is ctx.Err() on cancellation and nil otherwise. l is left open.
func AcceptWindow(ctx context.Context, l transport.Listener, w Window) ([]transport.Session, error) {
    var out []transport.Session
    for w.MaxPeers <= 0 || len(out) < w.MaxPeers {
        actx, cancel := context.WithTimeout(ctx, w.Idle)
        s, err := l.Accept(actx)
        cancel()
        if err != nil {
            if ctx.Err() != nil { return out, ctx.Err() }
            if errors.Is(err, context.DeadlineExceeded) {
                zap.L().Debug("accept window idle", zap.Duration("idle", w.Idle), zap.Int("sessions", len(out)))
                return out, nil
            }
            zap.L().Warn("accept failed", zap.String("addr", l.Addr().String()), zap.Error(err))
            return out, nil
        }
        peer := s.Peer()
        zap.L().Info("inbound session", zap.String("peer", string(peer.ID)), zap.String("kind", s.TransportKind().String()), zap.String("raddr", s.RemoteAddr().String()))
        out = append(out, s)
    }
    return out, nil
}
