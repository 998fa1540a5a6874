// Package rendezvous connects a master with workers it does not know in
// advance: the master announces its address once over UDP multicast, workers
// that hear it dial back, and the master accepts until the window goes idle.
package rendezvous

import (
    "errors"
    "fmt"
    "net"
    "strconv"
    "strings"
)

var (
    // ErrNoWorkers is returned by the master when the accept window closed
    // without a single connection.
    ErrNoWorkers = errors.New("no workers available")
    // ErrBadAnnouncement is returned by workers for a datagram that is not
    // host:port.
    ErrBadAnnouncement = errors.New("malformed announcement")
)

// Announcement is the master address carried by the discovery datagram.
type Announcement struct {
    Host string
    Port int
}

func (a Announcement) String() string { return net.JoinHostPort(a.Host, strconv.Itoa(a.Port)) }

// MarshalText is the datagram payload: "host:port".
func (a Announcement) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAnnouncement decodes a datagram payload.
func ParseAnnouncement(b []byte) (Announcement, error) {
    s := strings.TrimSpace(string(b))
    host, port, err := net.SplitHostPort(s)
    if err != nil { return Announcement{}, fmt.Errorf("%w: %q: %v", ErrBadAnnouncement, s, err) }
    if host == "" { return Announcement{}, fmt.Errorf("%w: %q: empty host", ErrBadAnnouncement, s) }
    p, err := strconv.Atoi(port)
    if err != nil || p <= 0 || p > 65535 {
        return Announcement{}, fmt.Errorf("%w: %q: bad port", ErrBadAnnouncement, s)
    }
    return Announcement{Host: host, Port: p}, nil
}
