// Package config provides YAML-based configuration loading for primemesh.
package config

import (
    "errors"
    "fmt"
    "net"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration shared by master and worker.
type Config struct {
    // AppName optional logical name of the process
    AppName string `mapstructure:"app_name"`

    // NodeID is attached to every log line; empty means a generated id
    NodeID string `mapstructure:"node_id"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Transport selects the peer transport and the master's listen address
    Transport TransportConfig `mapstructure:"transport"`

    // Discovery holds multicast rendezvous settings
    Discovery DiscoveryConfig `mapstructure:"discovery"`

    // Net holds dial tuning used by workers
    Net NetConfig `mapstructure:"net"`

    // Worker holds worker process options
    Worker WorkerConfig `mapstructure:"worker"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// WorkerConfig controls the worker binary.
type WorkerConfig struct {
    // Replicas is how many worker runtimes one process hosts
    Replicas int `mapstructure:"replicas"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "primemesh",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stderr"},
            Development: false,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/primemesh.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Transport: TransportConfig{Kind: "tcp", Listen: ":6000"},
        Discovery: DiscoveryConfig{
            Group:    "224.0.0.1",
            Port:     5000,
            WindowMS: 5000,
            TTL:      1,
            Loopback: true,
        },
        Net:    NetConfig{DialBackoffInitialMS: 200, DialBackoffMaxMS: 5000, DialBackoffJitterMS: 100, DialAttempts: 8},
        Worker: WorkerConfig{Replicas: 1},
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix PRIMEMESH and `.`/`-` are replaced with `_`.
// Example: PRIMEMESH_DISCOVERY_WINDOW_MS=2000
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("PRIMEMESH")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("node_id", cfg.NodeID)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("transport.kind", cfg.Transport.Kind)
    v.SetDefault("transport.listen", cfg.Transport.Listen)
    v.SetDefault("discovery.group", cfg.Discovery.Group)
    v.SetDefault("discovery.port", cfg.Discovery.Port)
    v.SetDefault("discovery.interface", cfg.Discovery.Interface)
    v.SetDefault("discovery.advertise_host", cfg.Discovery.AdvertiseHost)
    v.SetDefault("discovery.window_ms", cfg.Discovery.WindowMS)
    v.SetDefault("discovery.max_peers", cfg.Discovery.MaxPeers)
    v.SetDefault("discovery.ttl", cfg.Discovery.TTL)
    v.SetDefault("discovery.loopback", cfg.Discovery.Loopback)
    v.SetDefault("net.dial_backoff_initial_ms", cfg.Net.DialBackoffInitialMS)
    v.SetDefault("net.dial_backoff_max_ms", cfg.Net.DialBackoffMaxMS)
    v.SetDefault("net.dial_backoff_jitter_ms", cfg.Net.DialBackoffJitterMS)
    v.SetDefault("net.dial_attempts", cfg.Net.DialAttempts)
    v.SetDefault("worker.replicas", cfg.Worker.Replicas)

    // Choose config file
    if path == "" {
        // Allow override via env var
        if envPath := os.Getenv("PRIMEMESH_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `primemesh`
        v.SetConfigName("primemesh")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".primemesh"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stderr"}
    }

    c.Transport.Kind = strings.ToLower(strings.TrimSpace(c.Transport.Kind))
    switch c.Transport.Kind {
    case "":
        c.Transport.Kind = "tcp"
    case "tcp", "quic", "mem":
    default:
        return fmt.Errorf("invalid transport.kind: %q", c.Transport.Kind)
    }
    if c.Transport.Listen == "" {
        c.Transport.Listen = ":6000"
    }

    if ip := net.ParseIP(c.Discovery.Group); ip == nil || ip.To4() == nil || !ip.IsMulticast() {
        return fmt.Errorf("invalid discovery.group: %q is not an IPv4 multicast address", c.Discovery.Group)
    }
    if c.Discovery.Port <= 0 || c.Discovery.Port > 65535 {
        return fmt.Errorf("invalid discovery.port: %d", c.Discovery.Port)
    }
    if c.Discovery.WindowMS <= 0 {
        return fmt.Errorf("invalid discovery.window_ms: %d", c.Discovery.WindowMS)
    }
    if c.Discovery.MaxPeers < 0 {
        c.Discovery.MaxPeers = 0
    }
    if c.Discovery.TTL <= 0 {
        c.Discovery.TTL = 1
    }

    if c.Net.DialAttempts <= 0 {
        c.Net.DialAttempts = 1
    }
    if c.Worker.Replicas <= 0 {
        c.Worker.Replicas = 1
    }
    return nil
}
