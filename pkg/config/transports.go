package config

// TransportConfig selects the peer transport.
// Example YAML:
// transport:
//   kind: quic
//   listen: ":6000"
type TransportConfig struct {
    // Kind: tcp, quic or mem
    Kind string `mapstructure:"kind"`
    // Listen is the master's listen address; the announced port is taken
    // from the bound listener, so ":0" is allowed
    Listen string `mapstructure:"listen"`
}
