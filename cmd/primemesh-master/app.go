package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "os"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "primemesh/pkg/config"
    "primemesh/pkg/core/netstack"
    "primemesh/pkg/observability"
    "primemesh/pkg/peer"
    "primemesh/pkg/peers"
    "primemesh/pkg/rendezvous"
    "primemesh/pkg/scheduler"
    "primemesh/pkg/transport"
)

const (
    exitOK        = 0
    exitNoInput   = 1
    exitBadInput  = 2
    exitFailure   = 3
    exitNoWorkers = 4
)

// deps are the pieces tests replace to run without multicast.
type deps struct {
    newTransport func(kind string) (transport.Transport, error)
    announcer    func(config.DiscoveryConfig) rendezvous.Announcer
}

func defaultDeps() deps {
    return deps{
        newTransport: netstack.NewByKind,
        announcer:    func(d config.DiscoveryConfig) rendezvous.Announcer { return rendezvous.MulticastFromConfig(d) },
    }
}

// run is the main entry point after CLI parsing.
func run(ctx context.Context, opts Options, in io.Reader, out io.Writer, d deps) int {
    values, err := readInput(in)
    switch {
    case errors.Is(err, ErrNoInput):
        fmt.Fprintln(os.Stderr, "no input: expected whitespace-separated integers on stdin")
        return exitNoInput
    case err != nil:
        fmt.Fprintln(os.Stderr, err)
        return exitBadInput
    }

    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return exitFailure
    }
    applyFlags(cfg, opts)

    if cfg.NodeID == "" { cfg.NodeID = "master-" + uuid.NewString()[:8] }
    logger, closeLog, err := observability.SetupLogger(cfg.Log, zap.String("node", cfg.NodeID), zap.String("role", "master"))
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return exitFailure
    }
    defer func() { _ = closeLog() }()

    logger.Info("primemesh-master started", zap.String("app", cfg.AppName), zap.Int("values", len(values)))
    logger.Debug("effective configuration", zap.Any("config", cfg))

    tr, err := d.newTransport(cfg.Transport.Kind)
    if err != nil {
        logger.Error("transport", zap.Error(err))
        return exitFailure
    }

    jobID := uuid.New()
    logger.Info("discovering workers", zap.Stringer("job", jobID), zap.String("transport", tr.Kind().String()))
    m, handles, err := rendezvous.Discover(ctx, tr, d.announcer(cfg.Discovery), rendezvous.MasterOptions{
        Listen:        cfg.Transport.Listen,
        AdvertiseHost: cfg.Discovery.AdvertiseHost,
        Window:        netstack.Window{Idle: cfg.Discovery.Window(), MaxPeers: cfg.Discovery.MaxPeers},
    })
    if m != nil { defer m.Close() }
    if errors.Is(err, rendezvous.ErrNoWorkers) {
        logger.Error("no workers available", zap.Duration("window", cfg.Discovery.Window()))
        return exitNoWorkers
    }
    if err != nil {
        logger.Error("rendezvous failed", zap.Error(err))
        return exitFailure
    }

    conns := make([]peer.Conn, len(handles))
    for i, h := range handles { conns[i] = h }
    stats := peers.NewStore()
    sch := scheduler.New(conns, scheduler.WithLogger(logger), scheduler.WithStats(stats), scheduler.WithJobID(jobID))
    rep, err := sch.Run(ctx, values)
    for _, st := range stats.List() {
        logger.Debug("peer summary", zap.String("peer", string(st.ID)), zap.Stringer("state", st.State),
            zap.Int("assigned", st.Assigned), zap.Int("answered", st.Answered), zap.Int("failures", st.Failures))
    }
    logger.Info("peers summary", zap.Stringer("job", sch.JobID()), zap.Int("peers", rep.Peers),
        zap.Int("lost", stats.Count(peers.StateLost)), zap.Int("idle", stats.Count(peers.StateIdle)))
    if err != nil {
        logger.Error("job failed", zap.Error(err))
        return exitFailure
    }
    fmt.Fprintln(out, rep.Verdict.String())
    return exitOK
}

func applyFlags(cfg *config.Config, opts Options) {
    if opts.Window > 0 { cfg.Discovery.WindowMS = int(opts.Window.Milliseconds()) }
    if opts.Transport != "" { cfg.Transport.Kind = opts.Transport }
    if opts.Listen != "" { cfg.Transport.Listen = opts.Listen }
    if opts.LogLevel != "" { cfg.Log.Level = opts.LogLevel }
}
