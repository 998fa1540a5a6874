// Package transport defines the stream transports primemesh runs its peer
// channel over and provides the implementations (tcp, quic, mem).
//
// Key concepts:
// - Transport: dials/listens for Sessions of a specific Kind (TCP/QUIC/mem)
// - Session: a connection to one peer exposing a single duplex Stream
// - Stream: a Send/Recv channel of newline-terminated lines
//
// Framing is shared by every implementation (see framing.go): one SendBytes
// call writes exactly one line, one RecvBytes call returns exactly one line.
package transport
