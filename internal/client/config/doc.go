// Package config loads runtime configuration for the gophauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see Load) named by the -c/--config flag.
//  3. Command-line flags, applied by the cli package, which override
//     earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the call timeout, so values can
// be either strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "session_file": "session.db",
//	  "call_timeout": "10s"
//	}
package config
