// Package observability contains logging setup for the primemesh binaries.
package observability

import (
    "io"
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/multierr"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "primemesh/pkg/config"
)

// ParseLevel maps a config level name to a zap level. Unknown names are info.
func ParseLevel(s string) zapcore.Level {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return zap.DebugLevel
    case "warn", "warning":
        return zap.WarnLevel
    case "error":
        return zap.ErrorLevel
    default:
        return zap.InfoLevel
    }
}

// SetupLogger builds a zap.Logger from the provided configuration, sets it as
// the global logger, and redirects the stdlib log package. fields are attached
// to every entry. The returned closer syncs the logger and closes any files it
// opened; callers should defer it.
func SetupLogger(c config.LogConfig, fields ...zap.Field) (*zap.Logger, func() error, error) {
    level := zap.NewAtomicLevelAt(ParseLevel(c.Level))

    encCfg := defaultEncoderConfig(c.Development)
    var encoder zapcore.Encoder
    if strings.ToLower(c.Format) == "json" {
        encoder = zapcore.NewJSONEncoder(encCfg)
    } else {
        encoder = zapcore.NewConsoleEncoder(encCfg)
    }

    var (
        cores   []zapcore.Core
        closers []io.Closer
    )
    for _, out := range c.Outputs {
        switch strings.ToLower(out) {
        case "stdout":
            cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
        case "stderr":
            cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
        default:
            ws, cl, err := fileSink(out, c)
            if err != nil {
                _ = closeAll(closers)
                return nil, nil, err
            }
            closers = append(closers, cl)
            cores = append(cores, zapcore.NewCore(encoder, ws, level))
        }
    }

    opts := []zap.Option{
        zap.AddCaller(),
        zap.AddStacktrace(zap.ErrorLevel),
    }
    if c.Development {
        opts = append(opts, zap.Development())
    }
    if len(fields) > 0 {
        opts = append(opts, zap.Fields(fields...))
    }

    logger := zap.New(zapcore.NewTee(cores...), opts...)
    zap.ReplaceGlobals(logger)
    // redirect stdlib log to zap at Info level
    restore, err := zap.RedirectStdLogAt(logger, zap.InfoLevel)
    if err != nil {
        _ = closeAll(closers)
        return nil, nil, err
    }
    closer := func() error {
        restore()
        // Sync on a terminal returns EINVAL on some platforms; ignore it.
        _ = logger.Sync()
        return closeAll(closers)
    }
    return logger, closer, nil
}

// fileSink opens out for appending, through lumberjack when rotation is on.
func fileSink(out string, c config.LogConfig) (zapcore.WriteSyncer, io.Closer, error) {
    if c.Rotation.Enable {
        lj := &lumberjack.Logger{
            Filename:   chooseFilename(out, c),
            MaxSize:    max(c.Rotation.MaxSizeMB, 10),
            MaxBackups: max(c.Rotation.MaxBackups, 1),
            MaxAge:     max(c.Rotation.MaxAgeDays, 7),
            Compress:   c.Rotation.Compress,
        }
        return zapcore.AddSync(lj), lj, nil
    }
    if dir := filepath.Dir(out); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil { return nil, nil, err }
    }
    f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil { return nil, nil, err }
    return zapcore.Lock(f), f, nil
}

func closeAll(cs []io.Closer) error {
    var err error
    for _, c := range cs { err = multierr.Append(err, c.Close()) }
    return err
}

func defaultEncoderConfig(dev bool) zapcore.EncoderConfig {
    if dev {
        cfg := zap.NewDevelopmentEncoderConfig()
        cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return cfg
    }
    cfg := zap.NewProductionEncoderConfig()
    cfg.EncodeTime = zapcore.ISO8601TimeEncoder
    return cfg
}

// chooseFilename returns the output filename. If rotation is enabled and a
// filename is provided in rotation config, prefer it; otherwise use the `out`.
func chooseFilename(out string, c config.LogConfig) string {
    if c.Rotation.Enable && strings.TrimSpace(c.Rotation.Filename) != "" {
        return c.Rotation.Filename
    }
    return out
}
