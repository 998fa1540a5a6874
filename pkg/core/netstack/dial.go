package netstack

import (
    "context"
    "fmt"
    "math/rand/v2"
    "time"

    "go.uber.org/zap"

    "primemesh/pkg/transport"
)

// DialWithBackoff dials address until it succeeds, attempts run out or ctx
// ends. The delay doubles after each failure up to BackoffMax, plus up to
// BackoffJitter of random jitter.
func DialWithBackoff(ctx context.Context, tr transport.Transport, address string, peer transport.PeerInfo, opts Options) (transport.Session, error) {
    attempts := opts.Attempts
    if attempts <= 0 { attempts = 1 }
    backoff := opts.BackoffInitial
    if backoff <= 0 { backoff = 500 * time.Millisecond }
    maxBackoff := opts.BackoffMax
    if maxBackoff <= 0 { maxBackoff = 30 * time.Second }

    var lastErr error
    for i := 1; ; i++ {
        sess, err := tr.Dial(ctx, address, peer)
        if err == nil {
            zap.L().Info("dialed", zap.String("kind", tr.Kind().String()), zap.String("addr", address), zap.Int("attempt", i))
            return sess, nil
        }
        lastErr = err
        if ctx.Err() != nil { return nil, ctx.Err() }
        if i >= attempts { break }
        zap.L().Warn("dial failed", zap.String("kind", tr.Kind().String()), zap.String("addr", address), zap.Int("attempt", i), zap.Error(err))

        t := time.NewTimer(withJitter(backoff, opts.BackoffJitter))
        select {
        case <-ctx.Done():
            t.Stop()
            return nil, ctx.Err()
        case <-t.C:
        }
        if backoff < maxBackoff { backoff *= 2; if backoff > maxBackoff { backoff = maxBackoff } }
    }
    return nil, fmt.Errorf("dial %s: %d attempts: %w", address, attempts, lastErr)
}

func withJitter(d, jitter time.Duration) time.Duration {
    if jitter <= 0 { return d }
    // add random 0..jitter
    return d + rand.N(jitter)
}
