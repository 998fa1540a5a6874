package scheduler

import (
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap/zapcore"

    "primemesh/pkg/transport"
)

type Verdict uint8

const (
    VerdictUndecided Verdict = iota
    VerdictComposite
    VerdictAllPrime
)

func (v Verdict) String() string {
    switch v {
    case VerdictComposite:
        return "found a composite number"
    case VerdictAllPrime:
        return "all numbers are prime"
    default:
        return "undecided"
    }
}

// Report summarises one job.
type Report struct {
    JobID    uuid.UUID
    Verdict  Verdict
    Chunks   int
    Resolved int
    Peers    int
    Lost     []transport.PeerID
    Elapsed  time.Duration
}

// MarshalLogObject lets a Report be logged with zap.Object.
func (r Report) MarshalLogObject(enc zapcore.ObjectEncoder) error {
    enc.AddString("job", r.JobID.String())
    enc.AddString("verdict", r.Verdict.String())
    enc.AddInt("chunks", r.Chunks)
    enc.AddInt("resolved", r.Resolved)
    enc.AddInt("peers", r.Peers)
    enc.AddInt("lost", len(r.Lost))
    enc.AddDuration("elapsed", r.Elapsed)
    return nil
}
