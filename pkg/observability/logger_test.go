package observability

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "primemesh/pkg/config"
)

func TestParseLevel(t *testing.T) {
    require.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
    require.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
    require.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
    require.Equal(t, zapcore.InfoLevel, ParseLevel("whatever"))
}

func TestFileOutputJSON(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "master.log")
    prev := zap.L()
    defer zap.ReplaceGlobals(prev)

    lg, closer, err := SetupLogger(config.LogConfig{Level: "info", Format: "json", Outputs: []string{path}}, zap.String("role", "master"))
    require.NoError(t, err)
    lg.Debug("hidden")
    zap.L().Info("job finished", zap.Int("peers", 3))
    require.NoError(t, closer())

    b, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(b)), "\n")
    require.Len(t, lines, 1)
    var entry map[string]any
    require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
    require.Equal(t, "job finished", entry["msg"])
    require.Equal(t, "master", entry["role"])
    require.EqualValues(t, 3, entry["peers"])
}

func TestRotationUsesConfiguredFilename(t *testing.T) {
    dir := t.TempDir()
    rotated := filepath.Join(dir, "rotated.log")
    prev := zap.L()
    defer zap.ReplaceGlobals(prev)

    c := config.LogConfig{Level: "info", Format: "json", Outputs: []string{filepath.Join(dir, "ignored.log")},
        Rotation: config.RotationConfig{Enable: true, Filename: rotated}}
    lg, closer, err := SetupLogger(c)
    require.NoError(t, err)
    lg.Info("rotating")
    require.NoError(t, closer())

    _, err = os.Stat(rotated)
    require.NoError(t, err)
}
