package main

import (
    "bufio"
    "errors"
    "fmt"
    "io"
    "strconv"
)

var (
    ErrNoInput  = errors.New("no input numbers")
    ErrBadInput = errors.New("unparseable input")
)

// readInput reads whitespace-separated integers.
func readInput(r io.Reader) ([]int64, error) {
    sc := bufio.NewScanner(r)
    sc.Buffer(make([]byte, 64*1024), 1<<20)
    sc.Split(bufio.ScanWords)
    var out []int64
    for sc.Scan() {
        v, err := strconv.ParseInt(sc.Text(), 10, 64)
        if err != nil { return nil, fmt.Errorf("%w: token %d %q", ErrBadInput, len(out)+1, sc.Text()) }
        out = append(out, v)
    }
    if err := sc.Err(); err != nil { return nil, fmt.Errorf("%w: %v", ErrBadInput, err) }
    if len(out) == 0 { return nil, ErrNoInput }
    return out, nil
}
