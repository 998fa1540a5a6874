package taskq

import (
    "sync"
    "testing"

    "github.com/stretchr/testify/require"
    "pgregory.net/rapid"
)

func TestFIFOOrder(t *testing.T) {
    q := New(1, 2, 3)
    q.PushBack(4)
    for want := 1; want <= 4; want++ {
        v, ok := q.PopFront()
        require.True(t, ok)
        require.Equal(t, want, v)
    }
    _, ok := q.PopFront()
    require.False(t, ok)
    require.Equal(t, 0, q.Len())
}

func TestZeroValueUsable(t *testing.T) {
    var q Queue[string]
    q.PushBack("a")
    v, ok := q.PopFront()
    require.True(t, ok)
    require.Equal(t, "a", v)
}

func TestConcurrentPush(t *testing.T) {
    q := New[int]()
    var wg sync.WaitGroup
    for g := 0; g < 8; g++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := 0; i < 100; i++ { q.PushBack(i) }
        }()
    }
    wg.Wait()
    require.Equal(t, 800, q.Len())
}

// Interleaved pushes and pops behave like a reference slice.
func TestMatchesSliceModel(t *testing.T) {
    rapid.Check(t, func(t *rapid.T) {
        q := New[int]()
        var model []int
        ops := rapid.SliceOf(rapid.IntRange(-1, 1000)).Draw(t, "ops")
        for _, op := range ops {
            if op < 0 {
                v, ok := q.PopFront()
                if len(model) == 0 {
                    if ok { t.Fatalf("pop from empty returned %d", v) }
                    continue
                }
                if !ok || v != model[0] { t.Fatalf("pop = %d,%v want %d", v, ok, model[0]) }
                model = model[1:]
                continue
            }
            q.PushBack(op)
            model = append(model, op)
        }
        if q.Len() != len(model) { t.Fatalf("len = %d want %d", q.Len(), len(model)) }
    })
}
