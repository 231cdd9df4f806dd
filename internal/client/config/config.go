package config

import "time"

// Config holds runtime settings for the gophauth CLI.
type Config struct {
	// ServerEndpointAddr is host:port of the gRPC endpoint.
	ServerEndpointAddr string
	// SessionFile is the SQLite file holding the signed-in token pair.
	SessionFile string
	// CallTimeout bounds every RPC.
	CallTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionFile = "session.db"
	c.CallTimeout = 10 * time.Second
}

// Load applies defaults and then overlays the JSON file at path, when
// path is not empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
