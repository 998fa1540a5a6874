package scheduler

import (
    "errors"
    "fmt"
)

var ErrBadChunkCount = errors.New("chunk count must be positive")

// Chunk is a contiguous slice of the input, owned by the scheduler.
type Chunk struct {
    Index  int
    Values []int64
}

// Partition splits values into exactly k contiguous chunks. The first n%k
// chunks carry one extra element. Values are copied so callers may reuse
// their slice. With n < k the trailing chunks are empty.
func Partition(values []int64, k int) ([]Chunk, error) {
    if k <= 0 { return nil, fmt.Errorf("%w: %d", ErrBadChunkCount, k) }
    n := len(values)
    base, extra := n/k, n%k
    out := make([]Chunk, k)
    off := 0
    for i := range out {
        size := base
        if i < extra { size++ }
        vals := make([]int64, size)
        copy(vals, values[off:off+size])
        out[i] = Chunk{Index: i, Values: vals}
        off += size
    }
    return out, nil
}
