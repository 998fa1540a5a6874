package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
    t.Setenv("PRIMEMESH_CONFIG", "")
    cfg, err := Load("")
    require.NoError(t, err)
    require.Equal(t, "tcp", cfg.Transport.Kind)
    require.Equal(t, ":6000", cfg.Transport.Listen)
    require.Equal(t, "224.0.0.1:5000", cfg.Discovery.GroupAddr())
    require.Equal(t, 5*time.Second, cfg.Discovery.Window())
    require.Equal(t, 1, cfg.Worker.Replicas)
    require.Equal(t, []string{"stderr"}, cfg.Log.Outputs)
}

func TestLoadFile(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "primemesh.yaml")
    yaml := `
app_name: lab
transport:
  kind: QUIC
  listen: ":7000"
discovery:
  group: 239.1.2.3
  port: 5100
  window_ms: 1500
  max_peers: 4
net:
  dial_attempts: 3
worker:
  replicas: 2
log:
  level: debug
  format: json
`
    require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
    cfg, err := Load(path)
    require.NoError(t, err)
    require.Equal(t, "lab", cfg.AppName)
    require.Equal(t, "quic", cfg.Transport.Kind)
    require.Equal(t, "239.1.2.3:5100", cfg.Discovery.GroupAddr())
    require.Equal(t, 1500*time.Millisecond, cfg.Discovery.Window())
    require.Equal(t, 4, cfg.Discovery.MaxPeers)
    require.Equal(t, 3, cfg.Net.DialAttempts)
    require.Equal(t, 2, cfg.Worker.Replicas)
    require.Equal(t, "json", cfg.Log.Format)
    // untouched keys keep their defaults
    require.Equal(t, 200*time.Millisecond, cfg.Net.BackoffInitial())
    require.True(t, cfg.Discovery.Loopback)
}

func TestEnvOverride(t *testing.T) {
    t.Setenv("PRIMEMESH_CONFIG", "")
    t.Setenv("PRIMEMESH_DISCOVERY_WINDOW_MS", "2000")
    t.Setenv("PRIMEMESH_TRANSPORT_LISTEN", "127.0.0.1:0")
    cfg, err := Load("")
    require.NoError(t, err)
    require.Equal(t, 2*time.Second, cfg.Discovery.Window())
    require.Equal(t, "127.0.0.1:0", cfg.Transport.Listen)
}

func TestConfigEnvPath(t *testing.T) {
    path := filepath.Join(t.TempDir(), "custom.yaml")
    require.NoError(t, os.WriteFile(path, []byte("worker:\n  replicas: 5\n"), 0o644))
    t.Setenv("PRIMEMESH_CONFIG", path)
    cfg, err := Load("")
    require.NoError(t, err)
    require.Equal(t, 5, cfg.Worker.Replicas)
}

func TestInvalid(t *testing.T) {
    t.Setenv("PRIMEMESH_CONFIG", "")
    for name, env := range map[string][2]string{
        "level":     {"PRIMEMESH_LOG_LEVEL", "loud"},
        "group":     {"PRIMEMESH_DISCOVERY_GROUP", "10.0.0.1"},
        "port":      {"PRIMEMESH_DISCOVERY_PORT", "70000"},
        "window":    {"PRIMEMESH_DISCOVERY_WINDOW_MS", "0"},
        "transport": {"PRIMEMESH_TRANSPORT_KIND", "carrier-pigeon"},
    } {
        t.Run(name, func(t *testing.T) {
            t.Setenv(env[0], env[1])
            _, err := Load("")
            require.Error(t, err)
        })
    }
}

func TestMissingExplicitFile(t *testing.T) {
    _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
    require.Error(t, err)
}
