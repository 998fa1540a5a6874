package rendezvous

import (
    "context"
    "fmt"
    "net"
    "strconv"

    "go.uber.org/zap"

    "primemesh/pkg/core/netstack"
    "primemesh/pkg/peer"
    "primemesh/pkg/transport"
)

// MasterOptions configures the master side of a rendezvous.
type MasterOptions struct {
    // Listen is the transport listen address, e.g. ":6000"
    Listen string
    // AdvertiseHost is put in the announcement; empty picks a local address
    AdvertiseHost string
    Window        netstack.Window
}

// Master holds the listener workers dial back to. It stays open until Close
// so transports that tie sessions to the listener keep them alive.
type Master struct {
    l         transport.Listener
    announced Announcement
}

// Listen opens the master listener and works out the address to announce.
func Listen(ctx context.Context, tr transport.Transport, opts MasterOptions) (*Master, error) {
    l, err := tr.Listen(ctx, opts.Listen)
    if err != nil { return nil, fmt.Errorf("listen %s: %w", opts.Listen, err) }
    _, ps, err := net.SplitHostPort(l.Addr().String())
    if err != nil {
        _ = l.Close()
        return nil, fmt.Errorf("listener address %q: %w", l.Addr(), err)
    }
    port, err := strconv.Atoi(ps)
    if err != nil {
        _ = l.Close()
        return nil, fmt.Errorf("listener port %q: %w", ps, err)
    }
    host := opts.AdvertiseHost
    if host == "" { host = AdvertiseHost() }
    m := &Master{l: l, announced: Announcement{Host: host, Port: port}}
    zap.L().Info("listening", zap.String("kind", tr.Kind().String()), zap.String("addr", l.Addr().String()), zap.String("advertise", m.announced.String()))
    return m, nil
}

func (m *Master) Announcement() Announcement { return m.announced }

// Collect announces once, then accepts peers until the window goes idle or
// is full. Zero peers is ErrNoWorkers.
func (m *Master) Collect(ctx context.Context, ann Announcer, w netstack.Window) ([]*peer.Handle, error) {
    if err := ann.Announce(ctx, m.announced); err != nil { return nil, fmt.Errorf("announce: %w", err) }
    sessions, err := netstack.AcceptWindow(ctx, m.l, w)
    handles := make([]*peer.Handle, 0, len(sessions))
    for _, s := range sessions {
        if err != nil {
            _ = s.Close()
            continue
        }
        h, herr := peer.NewHandle(ctx, s)
        if herr != nil {
            zap.L().Warn("dropping peer", zap.String("peer", string(s.Peer().ID)), zap.Error(herr))
            _ = s.Close()
            continue
        }
        handles = append(handles, h)
    }
    if err != nil { return nil, err }
    if len(handles) == 0 { return nil, ErrNoWorkers }
    zap.L().Info("rendezvous complete", zap.Int("peers", len(handles)))
    return handles, nil
}

func (m *Master) Close() error { return m.l.Close() }

// Discover is Listen followed by Collect. The returned Master must be closed
// once the peers are no longer needed, also when err is non-nil.
func Discover(ctx context.Context, tr transport.Transport, ann Announcer, opts MasterOptions) (*Master, []*peer.Handle, error) {
    m, err := Listen(ctx, tr, opts)
    if err != nil { return nil, nil, err }
    hs, err := m.Collect(ctx, ann, opts.Window)
    return m, hs, err
}

// AdvertiseHost returns the first non-loopback IPv4 address of this host, or
// 127.0.0.1 when there is none.
func AdvertiseHost() string {
    addrs, err := net.InterfaceAddrs()
    if err == nil {
        for _, a := range addrs {
            ipn, ok := a.(*net.IPNet)
            if !ok { continue }
            if ip4 := ipn.IP.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
                return ip4.String()
            }
        }
    }
    return "127.0.0.1"
}
