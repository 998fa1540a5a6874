package main

import (
    "context"
    "os"

    "github.com/google/uuid"
    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "primemesh/pkg/config"
    "primemesh/pkg/core/netstack"
    "primemesh/pkg/observability"
    "primemesh/pkg/primes"
    "primemesh/pkg/protocol/stream"
    "primemesh/pkg/rendezvous"
    "primemesh/pkg/transport"
    "primemesh/pkg/worker"
)

const (
    exitOK      = 0
    exitFailure = 1
)

type deps struct {
    newTransport func(kind string) (transport.Transport, error)
    receiver     func(config.DiscoveryConfig) rendezvous.Receiver
}

func defaultDeps() deps {
    return deps{
        newTransport: netstack.NewByKind,
        receiver:     func(d config.DiscoveryConfig) rendezvous.Receiver { return rendezvous.MulticastFromConfig(d) },
    }
}

// run is the main entry point after CLI parsing.
func run(ctx context.Context, opts Options, d deps) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return exitFailure
    }
    applyFlags(cfg, opts)

    if cfg.NodeID == "" { cfg.NodeID = "worker-" + uuid.NewString()[:8] }
    logger, closeLog, err := observability.SetupLogger(cfg.Log, zap.String("node", cfg.NodeID), zap.String("role", "worker"))
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return exitFailure
    }
    defer func() { _ = closeLog() }()
    logger.Info("primemesh-worker started", zap.String("app", cfg.AppName), zap.Int("replicas", cfg.Worker.Replicas))

    tr, err := d.newTransport(cfg.Transport.Kind)
    if err != nil {
        logger.Error("transport", zap.Error(err))
        return exitFailure
    }

    sessions, ann, err := rendezvous.Join(ctx, d.receiver(cfg.Discovery), tr, cfg.Worker.Replicas, netstack.OptionsFromConfig(cfg.Net))
    if err != nil {
        logger.Error("rendezvous failed", zap.Error(err))
        return exitFailure
    }
    logger.Info("connected to master", zap.String("master", ann.String()), zap.Int("sessions", len(sessions)))

    g, gctx := errgroup.WithContext(ctx)
    for i, sess := range sessions {
        lg := logger.With(zap.Int("replica", i), zap.String("session", string(sess.Peer().ID)))
        g.Go(func() error {
            st, err := sess.OpenStream(gctx)
            if err != nil {
                _ = sess.Close()
                return err
            }
            rt := worker.New(stream.New(st), primes.Evaluator{}, worker.WithLogger(lg))
            err = rt.Run(gctx)
            s := rt.Stats()
            lg.Info("replica finished", zap.Int("tasks", s.Tasks), zap.Int("positive", s.Positive), zap.Int("malformed", s.Malformed))
            return err
        })
    }
    if err := g.Wait(); err != nil {
        logger.Error("worker failed", zap.Error(err))
        return exitFailure
    }
    return exitOK
}

func applyFlags(cfg *config.Config, opts Options) {
    if opts.Replicas > 0 { cfg.Worker.Replicas = opts.Replicas }
    if opts.Transport != "" { cfg.Transport.Kind = opts.Transport }
    if opts.LogLevel != "" { cfg.Log.Level = opts.LogLevel }
}
