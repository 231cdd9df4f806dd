package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for the TTL fields, which accepts both string
// values such as "15m" or "7d" and integer nanoseconds.
//
// Only non-zero fields override what is already in Config.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	MetricsAddr      string         `json:"metrics_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	InMemory         *bool          `json:"in_memory"`
	AccessSecret     string         `json:"access_secret"`
	AccessTTL        timex.Duration `json:"access_ttl"`
	RefreshSecret    string         `json:"refresh_secret"`
	RefreshTTL       timex.Duration `json:"refresh_ttl"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
	InitialAdmin     struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	} `json:"initial_admin"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.InMemory != nil {
		config.InMemory = *c.InMemory
	}
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	if c.AccessTTL.Duration != 0 {
		config.AccessTTL = c.AccessTTL.Duration
	}
	if c.RefreshTTL.Duration != 0 {
		config.RefreshTTL = c.RefreshTTL.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.InitialAdmin.Email, c.InitialAdmin.Email)
	setString(&config.InitialAdmin.Name, c.InitialAdmin.Name)
	setString(&config.InitialAdmin.Password, c.InitialAdmin.Password)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
