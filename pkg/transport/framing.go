package transport

import (
    "bufio"
    "bytes"
    "errors"
    "io"
)

// MaxLineSize bounds a single received line.
const MaxLineSize = 1 << 24

var (
    ErrLineTooLong     = errors.New("line exceeds max size")
    ErrEmbeddedNewline = errors.New("payload contains a line terminator")
)

// WriteLine writes b and a '\n' and flushes bw.
func WriteLine(bw *bufio.Writer, b []byte) error {
    if bytes.IndexByte(b, '\n') >= 0 { return ErrEmbeddedNewline }
    if _, err := bw.Write(b); err != nil { return err }
    if err := bw.WriteByte('\n'); err != nil { return err }
    return bw.Flush()
}

// ReadLine reads one line from br, stripping "\n" or "\r\n".
// A final unterminated line is returned as is; io.EOF is returned only when
// nothing was buffered.
func ReadLine(br *bufio.Reader) ([]byte, error) {
    var line []byte
    for {
        frag, err := br.ReadSlice('\n')
        if len(line)+len(frag) > MaxLineSize { return nil, ErrLineTooLong }
        line = append(line, frag...)
        if err == nil { break }
        if errors.Is(err, bufio.ErrBufferFull) { continue }
        if errors.Is(err, io.EOF) && len(line) > 0 { return trimEOL(line), nil }
        return nil, err
    }
    return trimEOL(line), nil
}

func trimEOL(b []byte) []byte {
    b = bytes.TrimSuffix(b, []byte{'\n'})
    return bytes.TrimSuffix(b, []byte{'\r'})
}
