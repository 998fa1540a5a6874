package main

import (
    "bytes"
    "context"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "primemesh/pkg/config"
    "primemesh/pkg/primes"
    "primemesh/pkg/protocol/stream"
    "primemesh/pkg/rendezvous"
    "primemesh/pkg/transport"
    "primemesh/pkg/transport/mem"
    "primemesh/pkg/worker"
)

// spawner answers an announcement by starting n in-process workers that dial
// the announced address over tr.
type spawner struct {
    ctx context.Context
    tr  *mem.Transport
    n   int
}

func (s spawner) Announce(_ context.Context, a rendezvous.Announcement) error {
    for i := 0; i < s.n; i++ {
        sess, err := s.tr.Dial(s.ctx, a.String(), transport.PeerInfo{})
        if err != nil { return err }
        go func() {
            st, err := sess.OpenStream(s.ctx)
            if err != nil { return }
            _ = worker.Run(s.ctx, stream.New(st), primes.Evaluator{})
        }()
    }
    return nil
}

func testDeps(ctx context.Context, workers int) deps {
    tr := mem.New()
    return deps{
        newTransport: func(string) (transport.Transport, error) { return tr, nil },
        announcer:    func(config.DiscoveryConfig) rendezvous.Announcer { return spawner{ctx: ctx, tr: tr, n: workers} },
    }
}

func execMaster(t *testing.T, stdin string, workers int, args ...string) (int, string) {
    t.Helper()
    t.Setenv("PRIMEMESH_CONFIG", "")
    t.Setenv("PRIMEMESH_DISCOVERY_ADVERTISE_HOST", "127.0.0.1")
    t.Setenv("PRIMEMESH_LOG_LEVEL", "warn")
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    var out bytes.Buffer
    code := -1
    cmd := newRootCmd(ctx, strings.NewReader(stdin), &out, testDeps(ctx, workers), &code)
    cmd.SetArgs(append([]string{"--listen", "127.0.0.1:6000", "--window", "100ms"}, args...))
    require.NoError(t, cmd.Execute())
    return code, out.String()
}

func TestMasterAllPrime(t *testing.T) {
    code, out := execMaster(t, "2 3 5 7", 2)
    require.Equal(t, exitOK, code)
    require.Equal(t, "all numbers are prime\n", out)
}

func TestMasterComposite(t *testing.T) {
    code, out := execMaster(t, "2 3 4 5 7 11 13", 3)
    require.Equal(t, exitOK, code)
    require.Equal(t, "found a composite number\n", out)
}

func TestMasterMoreWorkersThanNumbers(t *testing.T) {
    code, out := execMaster(t, "17", 3)
    require.Equal(t, exitOK, code)
    require.Equal(t, "all numbers are prime\n", out)
}

func TestMasterNoWorkers(t *testing.T) {
    code, out := execMaster(t, "2 3", 0)
    require.Equal(t, exitNoWorkers, code)
    require.Empty(t, out)
}

func TestMasterInputErrors(t *testing.T) {
    code, _ := execMaster(t, "", 1)
    require.Equal(t, exitNoInput, code)
    code, _ = execMaster(t, "2 x", 1)
    require.Equal(t, exitBadInput, code)
}

func TestMasterBadConfig(t *testing.T) {
    code, _ := execMaster(t, "2 3", 1, "--config", "/nonexistent/primemesh.yaml")
    require.Equal(t, exitFailure, code)
}

func TestApplyFlags(t *testing.T) {
    cfg := config.Default()
    applyFlags(cfg, Options{Window: 1500 * time.Millisecond, Transport: "quic", Listen: ":7000", LogLevel: "debug"})
    require.Equal(t, 1500, cfg.Discovery.WindowMS)
    require.Equal(t, "quic", cfg.Transport.Kind)
    require.Equal(t, ":7000", cfg.Transport.Listen)
    require.Equal(t, "debug", cfg.Log.Level)

    cfg = config.Default()
    applyFlags(cfg, Options{})
    require.Equal(t, config.Default(), cfg)
}
