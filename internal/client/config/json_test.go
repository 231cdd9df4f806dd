package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name string
		data map[string]any
		want *Config
	}{
		{
			name: "all fields",
			data: map[string]any{
				"server_endpoint_addr": "auth.example:9000",
				"session_file":         "/tmp/s.db",
				"call_timeout":         "3s",
			},
			want: &Config{ServerEndpointAddr: "auth.example:9000", SessionFile: "/tmp/s.db", CallTimeout: 3 * time.Second},
		},
		{
			name: "partial keeps defaults",
			data: map[string]any{"session_file": "other.db"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:50051", SessionFile: "other.db", CallTimeout: 10 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			require.NoError(t, parseJson(cfg, writeTempJSON(t, tt.data)))
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}

func Test_parseJson_Invalid(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	err := parseJson(&Config{}, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
