package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"github.com/joho/godotenv"
)

// envConfig lists the recognised environment variables. Unset variables
// keep the value the struct was prefilled with.
type envConfig struct {
	EndpointAddrGRPC string        `env:"GRPC_ADDRESS"`
	MetricsAddr      string        `env:"METRICS_ADDRESS"`
	DatabaseDSN      string        `env:"DATABASE_URL"`
	InMemory         bool          `env:"IN_MEMORY"`
	AccessSecret     string        `env:"JWT_ACCESS_SECRET"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_EXPIRES_IN"`
	RefreshSecret    string        `env:"JWT_REFRESH_SECRET"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_EXPIRES_IN"`
	LogLevel         string        `env:"LOG_LEVEL"`
	LogFormat        string        `env:"LOG_FORMAT"`
	AdminEmail       string        `env:"INITIAL_ADMIN_EMAIL"`
	AdminName        string        `env:"INITIAL_ADMIN_USERNAME"`
	AdminPassword    string        `env:"INITIAL_ADMIN_PASSWORD"`
}

// envOptions makes durations accept the "7d" day suffix.
var envOptions = env.Options{
	FuncMap: map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
			return timex.ParseDuration(v)
		},
	},
}

// loadDotenv reads the file named by -env-file, or ./.env when the flag is
// absent. A missing ./.env is not an error; variables already in the
// environment are never overwritten.
func loadDotenv(args []string) error {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// parseEnv overlays set environment variables onto config.
func parseEnv(config *Config, args []string) error {
	if err := loadDotenv(args); err != nil {
		return err
	}

	ec := envConfig{
		EndpointAddrGRPC: config.EndpointAddrGRPC,
		MetricsAddr:      config.MetricsAddr,
		DatabaseDSN:      config.DatabaseDSN,
		InMemory:         config.InMemory,
		AccessSecret:     config.AccessSecret,
		AccessTTL:        config.AccessTTL,
		RefreshSecret:    config.RefreshSecret,
		RefreshTTL:       config.RefreshTTL,
		LogLevel:         config.LogLevel,
		LogFormat:        config.LogFormat,
		AdminEmail:       config.InitialAdmin.Email,
		AdminName:        config.InitialAdmin.Name,
		AdminPassword:    config.InitialAdmin.Password,
	}
	if err := env.ParseWithOptions(&ec, envOptions); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	config.EndpointAddrGRPC = ec.EndpointAddrGRPC
	config.MetricsAddr = ec.MetricsAddr
	config.DatabaseDSN = ec.DatabaseDSN
	config.InMemory = ec.InMemory
	config.AccessSecret = ec.AccessSecret
	config.AccessTTL = ec.AccessTTL
	config.RefreshSecret = ec.RefreshSecret
	config.RefreshTTL = ec.RefreshTTL
	config.LogLevel = ec.LogLevel
	config.LogFormat = ec.LogFormat
	config.InitialAdmin = AdminConfig{Email: ec.AdminEmail, Name: ec.AdminName, Password: ec.AdminPassword}
	return nil
}
