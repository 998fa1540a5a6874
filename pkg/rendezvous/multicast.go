package rendezvous

import (
    "context"
    "errors"
    "fmt"
    "net"
    "time"

    "go.uber.org/zap"
    "golang.org/x/net/ipv4"

    "primemesh/pkg/config"
)

// Announcer publishes the master's address.
type Announcer interface {
    Announce(ctx context.Context, a Announcement) error
}

// Receiver blocks for one announcement.
type Receiver interface {
    Receive(ctx context.Context) (Announcement, error)
}

// Multicast announces and receives over an IPv4 multicast group.
type Multicast struct {
    // Group is group:port, e.g. 224.0.0.1:5000
    Group string
    // Interface names the NIC; empty lets the system choose
    Interface string
    TTL       int
    Loopback  bool
}

// MulticastFromConfig builds a Multicast from the discovery section.
func MulticastFromConfig(d config.DiscoveryConfig) *Multicast {
    return &Multicast{Group: d.GroupAddr(), Interface: d.Interface, TTL: d.TTL, Loopback: d.Loopback}
}

func (m *Multicast) group() (*net.UDPAddr, error) {
    ga, err := net.ResolveUDPAddr("udp4", m.Group)
    if err != nil { return nil, err }
    if !ga.IP.IsMulticast() { return nil, fmt.Errorf("%s is not a multicast address", ga.IP) }
    return ga, nil
}

func (m *Multicast) iface() (*net.Interface, error) {
    if m.Interface == "" { return nil, nil }
    return net.InterfaceByName(m.Interface)
}

// Announce sends a single datagram carrying a to the group.
func (m *Multicast) Announce(ctx context.Context, a Announcement) error {
    ga, err := m.group()
    if err != nil { return err }
    ifi, err := m.iface()
    if err != nil { return err }

    c, err := net.ListenPacket("udp4", "0.0.0.0:0")
    if err != nil { return err }
    defer c.Close()
    p := ipv4.NewPacketConn(c)
    ttl := m.TTL
    if ttl <= 0 { ttl = 1 }
    if err := p.SetMulticastTTL(ttl); err != nil { return fmt.Errorf("multicast ttl: %w", err) }
    if err := p.SetMulticastLoopback(m.Loopback); err != nil { return fmt.Errorf("multicast loopback: %w", err) }
    if ifi != nil {
        if err := p.SetMulticastInterface(ifi); err != nil { return fmt.Errorf("multicast interface: %w", err) }
    }
    if dl, ok := ctx.Deadline(); ok { _ = p.SetWriteDeadline(dl) }

    payload, _ := a.MarshalText()
    if _, err := p.WriteTo(payload, nil, ga); err != nil { return fmt.Errorf("announce: %w", err) }
    zap.L().Info("announced", zap.String("group", ga.String()), zap.String("addr", a.String()))
    return nil
}

// Receive joins the group, waits for one datagram sent to it and leaves.
// A datagram that does not parse is returned as ErrBadAnnouncement.
func (m *Multicast) Receive(ctx context.Context) (Announcement, error) {
    ga, err := m.group()
    if err != nil { return Announcement{}, err }
    ifi, err := m.iface()
    if err != nil { return Announcement{}, err }

    // Listening on the group address binds the wildcard with SO_REUSEADDR so
    // several workers on one host can share the port.
    c, err := net.ListenPacket("udp4", ga.String())
    if err != nil { return Announcement{}, err }
    defer c.Close()
    p := ipv4.NewPacketConn(c)
    if err := p.JoinGroup(ifi, &net.UDPAddr{IP: ga.IP}); err != nil { return Announcement{}, fmt.Errorf("join %s: %w", ga.IP, err) }
    defer func() { _ = p.LeaveGroup(ifi, &net.UDPAddr{IP: ga.IP}) }()
    _ = p.SetControlMessage(ipv4.FlagDst, true)
    zap.L().Info("waiting for announcement", zap.String("group", ga.String()))

    if dl, ok := ctx.Deadline(); ok { _ = p.SetReadDeadline(dl) }
    stop := context.AfterFunc(ctx, func() { _ = p.SetReadDeadline(time.Now()) })
    defer stop()

    buf := make([]byte, 512)
    for {
        n, cm, src, err := p.ReadFrom(buf)
        if err != nil {
            if ctx.Err() != nil { return Announcement{}, ctx.Err() }
            var ne net.Error
            if errors.As(err, &ne) && ne.Timeout() { return Announcement{}, context.DeadlineExceeded }
            return Announcement{}, err
        }
        // the socket is bound to the wildcard, so unicast to the port lands here too
        if cm != nil && cm.Dst != nil && !cm.Dst.Equal(ga.IP) { continue }
        a, err := ParseAnnouncement(buf[:n])
        if err != nil { return Announcement{}, err }
        zap.L().Info("announcement received", zap.String("from", src.String()), zap.String("addr", a.String()))
        return a, nil
    }
}
