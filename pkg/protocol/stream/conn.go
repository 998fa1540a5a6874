// Package stream is the peer channel: a symmetric command transport used by
// both master and worker once rendezvous has produced a session.
package stream

import (
    "errors"
    "fmt"
    "io"
    "net"
    "syscall"

    "primemesh/pkg/protocol"
    "primemesh/pkg/transport"
)

// ErrDisconnected is returned by Recv when the peer closed or crashed.
var ErrDisconnected = errors.New("peer disconnected")

// Conn sends and receives protocol commands over a transport.Stream.
// One goroutine may Recv while others Send.
type Conn struct {
    st transport.Stream
}

func New(st transport.Stream) *Conn { return &Conn{st: st} }

// Send writes one command line.
func (c *Conn) Send(cmd protocol.Command) error {
    b, err := cmd.MarshalText()
    if err != nil { return err }
    if err := c.st.SendBytes(b); err != nil { return disconnected(err) }
    return nil
}

// Recv reads the next command. End-of-stream surfaces as ErrDisconnected;
// a line that does not parse surfaces as a protocol error wrapping the line.
func (c *Conn) Recv() (protocol.Command, error) {
    line, err := c.st.RecvBytes()
    if err != nil { return protocol.Command{}, disconnected(err) }
    cmd, err := protocol.Parse(string(line))
    if err != nil { return protocol.Command{}, fmt.Errorf("parse %q: %w", line, err) }
    return cmd, nil
}

func (c *Conn) Close() error { return c.st.Close() }

func disconnected(err error) error {
    if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
        errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) ||
        errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
        return fmt.Errorf("%w: %v", ErrDisconnected, err)
    }
    return err
}
