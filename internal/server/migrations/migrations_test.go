package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbedUserInfo(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	b, err := fs.ReadFile(Migrations, "00001_create_user_info.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "user_info_eml_addr_key")
	assert.Contains(t, sql, "user_info_user_nm_key")
	assert.Contains(t, sql, "-- +goose Down")
}
