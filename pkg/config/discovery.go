package config

import (
    "net"
    "strconv"
    "time"
)

// DiscoveryConfig holds multicast rendezvous settings.
// Example YAML:
// discovery:
//   group: 224.0.0.1
//   port: 5000
//   window_ms: 5000
//   max_peers: 0
type DiscoveryConfig struct {
    Group string `mapstructure:"group"`
    Port  int    `mapstructure:"port"`
    // Interface names the NIC to join/send on; empty lets the system choose
    Interface string `mapstructure:"interface"`
    // AdvertiseHost overrides the host put in the announcement
    AdvertiseHost string `mapstructure:"advertise_host"`
    // WindowMS is the accept inactivity window
    WindowMS int `mapstructure:"window_ms"`
    // MaxPeers ends discovery early once reached; 0 means unbounded
    MaxPeers int  `mapstructure:"max_peers"`
    TTL      int  `mapstructure:"ttl"`
    Loopback bool `mapstructure:"loopback"`
}

// GroupAddr returns group:port.
func (d DiscoveryConfig) GroupAddr() string { return net.JoinHostPort(d.Group, strconv.Itoa(d.Port)) }

func (d DiscoveryConfig) Window() time.Duration { return ms(d.WindowMS) }
