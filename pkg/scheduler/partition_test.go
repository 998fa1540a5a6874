package scheduler

import (
    "testing"

    "github.com/stretchr/testify/require"
    "pgregory.net/rapid"
)

func TestPartitionSplitsContiguously(t *testing.T) {
    chunks, err := Partition([]int64{2, 3, 5, 7}, 2)
    require.NoError(t, err)
    require.Equal(t, []Chunk{{Index: 0, Values: []int64{2, 3}}, {Index: 1, Values: []int64{5, 7}}}, chunks)

    chunks, err = Partition([]int64{1, 2, 3, 4, 5}, 3)
    require.NoError(t, err)
    require.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, valuesOf(chunks))

    chunks, err = Partition([]int64{9}, 3)
    require.NoError(t, err)
    require.Equal(t, [][]int64{{9}, {}, {}}, valuesOf(chunks))
}

func TestPartitionRejectsBadCount(t *testing.T) {
    _, err := Partition([]int64{1}, 0)
    require.ErrorIs(t, err, ErrBadChunkCount)
    _, err = Partition(nil, -2)
    require.ErrorIs(t, err, ErrBadChunkCount)
}

func TestPartitionCopiesValues(t *testing.T) {
    in := []int64{4, 6, 8}
    chunks, err := Partition(in, 1)
    require.NoError(t, err)
    in[0] = 99
    require.Equal(t, int64(4), chunks[0].Values[0])
}

func TestPartitionProperties(t *testing.T) {
    rapid.Check(t, func(t *rapid.T) {
        values := rapid.SliceOf(rapid.Int64()).Draw(t, "values")
        k := rapid.IntRange(1, 64).Draw(t, "k")
        chunks, err := Partition(values, k)
        if err != nil { t.Fatalf("partition: %v", err) }
        if len(chunks) != k { t.Fatalf("got %d chunks, want %d", len(chunks), k) }

        var joined []int64
        n := len(values)
        for i, c := range chunks {
            if c.Index != i { t.Fatalf("chunk %d has index %d", i, c.Index) }
            want := n / k
            if i < n%k { want++ }
            if len(c.Values) != want { t.Fatalf("chunk %d size %d, want %d", i, len(c.Values), want) }
            joined = append(joined, c.Values...)
        }
        if len(joined) != n { t.Fatalf("sizes sum to %d, want %d", len(joined), n) }
        for i := range values {
            if joined[i] != values[i] { t.Fatalf("element %d: %d != %d", i, joined[i], values[i]) }
        }

        again, _ := Partition(values, k)
        for i := range chunks {
            if len(again[i].Values) != len(chunks[i].Values) { t.Fatalf("boundaries moved at chunk %d", i) }
        }
    })
}

func valuesOf(chunks []Chunk) [][]int64 {
    out := make([][]int64, len(chunks))
    for i, c := range chunks { out[i] = c.Values }
    return out
}
