// Package worker runs the worker side of the peer protocol: it answers each
// Task with the evaluator's verdict until told to Terminate.
package worker

import (
    "context"
    "errors"
    "fmt"
    "sync"

    "go.uber.org/zap"

    "primemesh/pkg/api"
    "primemesh/pkg/protocol"
    "primemesh/pkg/protocol/stream"
)

// Channel is the worker's end of the peer channel.
type Channel interface {
    Send(protocol.Command) error
    Recv() (protocol.Command, error)
    Close() error
}

// Stats counts what a runtime did before it returned.
type Stats struct {
    Tasks     int
    Positive  int
    Malformed int
    Ignored   int
}

// Runtime serves one peer channel.
type Runtime struct {
    ch   Channel
    eval api.Evaluator
    log  *zap.Logger

    closeOnce sync.Once
    stats     Stats
}

type Option func(*Runtime)

func WithLogger(l *zap.Logger) Option { return func(r *Runtime) { r.log = l } }

func New(ch Channel, eval api.Evaluator, opts ...Option) *Runtime {
    r := &Runtime{ch: ch, eval: eval, log: zap.L()}
    for _, o := range opts { o(r) }
    return r
}

// Run is a shorthand for New(ch, eval).Run(ctx).
func Run(ctx context.Context, ch Channel, eval api.Evaluator) error {
    return New(ch, eval).Run(ctx)
}

func (r *Runtime) Stats() Stats { return r.stats }

// Run loops until Terminate, disconnect or ctx cancellation. Terminate and
// disconnect both return nil. The channel is always closed on return.
func (r *Runtime) Run(ctx context.Context) error {
    defer r.close()
    stop := context.AfterFunc(ctx, r.close)
    defer stop()

    for {
        cmd, err := r.ch.Recv()
        if ctx.Err() != nil { return ctx.Err() }
        if err != nil {
            if errors.Is(err, stream.ErrDisconnected) {
                r.log.Info("master disconnected", zap.Int("tasks", r.stats.Tasks))
                return nil
            }
            if errors.Is(err, protocol.ErrUnknownCommand) || errors.Is(err, protocol.ErrEmptyLine) || errors.Is(err, protocol.ErrBadAnswer) {
                r.stats.Ignored++
                r.log.Warn("ignoring command", zap.Error(err))
                continue
            }
            return fmt.Errorf("recv: %w", err)
        }
        switch cmd.Kind {
        case protocol.KindTask:
            if err := r.handleTask(ctx, cmd); err != nil { return err }
        case protocol.KindTerminate:
            r.log.Info("terminate received", zap.Int("tasks", r.stats.Tasks), zap.Int("positive", r.stats.Positive))
            return nil
        default:
            r.stats.Ignored++
            r.log.Warn("ignoring command", zap.Stringer("kind", cmd.Kind))
        }
    }
}

func (r *Runtime) handleTask(ctx context.Context, cmd protocol.Command) error {
    r.stats.Tasks++
    if cmd.Malformed > 0 {
        r.stats.Malformed += cmd.Malformed
        r.log.Warn("dropped malformed task values", zap.Int("count", cmd.Malformed), zap.Int("kept", len(cmd.Values)))
    }
    found, err := r.eval.Evaluate(ctx, cmd.Values)
    if err != nil {
        if ctx.Err() != nil { return ctx.Err() }
        return fmt.Errorf("evaluate: %w", err)
    }
    if found { r.stats.Positive++ }
    r.log.Debug("task evaluated", zap.Int("values", len(cmd.Values)), zap.Bool("composite", found))
    if err := r.ch.Send(protocol.Answer(found)); err != nil {
        if errors.Is(err, stream.ErrDisconnected) {
            r.log.Info("master disconnected before answer")
            return nil
        }
        return fmt.Errorf("send answer: %w", err)
    }
    return nil
}

func (r *Runtime) close() {
    r.closeOnce.Do(func() { _ = r.ch.Close() })
}
