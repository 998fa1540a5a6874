package peers

import (
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
    s := NewStore()
    base := time.Unix(1700000000, 0)
    tick := 0
    s.nowFn = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

    s.Connected("b", "10.0.0.2:1")
    s.Connected("a", "10.0.0.3:1")
    s.Assigned("a", 0)
    s.Assigned("b", 1)
    require.Equal(t, 2, s.Count(StateBusy))

    s.Answered("a", false)
    s.Lost("b", errors.New("reset"))

    a, ok := s.Get("a")
    require.True(t, ok)
    require.Equal(t, StateIdle, a.State)
    require.Equal(t, 1, a.Assigned)
    require.Equal(t, 1, a.Answered)
    require.True(t, a.LastSeen.After(a.ConnectedAt))

    b, _ := s.Get("b")
    require.Equal(t, StateLost, b.State)
    require.Equal(t, "reset", b.LastError)
    require.Equal(t, 1, b.Failures)

    list := s.List()
    require.Len(t, list, 2)
    require.Equal(t, "b", string(list[0].ID), "ordered by connection time")
    require.Equal(t, "lost", list[0].State.String())
}

func TestUnknownPeer(t *testing.T) {
    s := NewStore()
    _, ok := s.Get("nope")
    require.False(t, ok)
    require.Empty(t, s.List())
}
