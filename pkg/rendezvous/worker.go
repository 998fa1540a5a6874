package rendezvous

import (
    "context"

    "go.uber.org/multierr"
    "go.uber.org/zap"

    "primemesh/pkg/core/netstack"
    "primemesh/pkg/transport"
)

// Join waits for one announcement and dials the master n times, one session
// per worker runtime. Either all n sessions are returned or none.
func Join(ctx context.Context, rcv Receiver, tr transport.Transport, n int, opts netstack.Options) ([]transport.Session, Announcement, error) {
    if n <= 0 { n = 1 }
    a, err := rcv.Receive(ctx)
    if err != nil { return nil, Announcement{}, err }

    sessions := make([]transport.Session, 0, n)
    for i := 0; i < n; i++ {
        s, err := netstack.DialWithBackoff(ctx, tr, a.String(), transport.PeerInfo{}, opts)
        if err != nil {
            var cerr error
            for _, s := range sessions { cerr = multierr.Append(cerr, s.Close()) }
            if cerr != nil { zap.L().Debug("closing partial sessions", zap.Error(cerr)) }
            return nil, a, err
        }
        sessions = append(sessions, s)
    }
    return sessions, a, nil
}
