// Package netstack builds transports by name and drives the two connection
// phases of a job: the master's bounded accept window and the worker's dial
// with backoff.
package netstack

import (
    "strings"
    "time"

    "primemesh/pkg/config"
    "primemesh/pkg/transport"
    "primemesh/pkg/transport/mem"
    tquic "primemesh/pkg/transport/quic"
    ttcp "primemesh/pkg/transport/tcp"
)

// Options tunes DialWithBackoff.
type Options struct {
    BackoffInitial time.Duration
    BackoffMax     time.Duration
    BackoffJitter  time.Duration
    // Attempts bounds the number of dials; <= 0 means one
    Attempts int
}

// OptionsFromConfig maps the net section of the config to dial options.
func OptionsFromConfig(n config.NetConfig) Options {
    return Options{
        BackoffInitial: n.BackoffInitial(),
        BackoffMax:     n.BackoffMax(),
        BackoffJitter:  n.BackoffJitter(),
        Attempts:       n.DialAttempts,
    }
}

// NewByKind constructs a Transport by string kind.
func NewByKind(kind string) (transport.Transport, error) {
    switch strings.ToLower(strings.TrimSpace(kind)) {
    case "tcp", "":
        return ttcp.New(), nil
    case "quic":
        return tquic.New(), nil
    case "mem", "inproc":
        return mem.New(), nil
    default:
        return nil, ErrUnknownKind(kind)
    }
}

// Basic typed error for unknown kinds
type ErrUnknownKind string
func (e ErrUnknownKind) Error() string { return "unknown transport kind: " + string(e) }
