package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medimate-backend/internal/config"
)

func TestDSN_InjectsKeyAsPassword(t *testing.T) {
	dsn, err := DSN(config.SupabaseConfig{
		URL: "postgres://postgres@db.abc.supabase.co:5432/postgres",
		Key: "s3cr3t/key",
	})
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	pw, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "s3cr3t/key", pw)
	assert.Equal(t, "postgres", u.User.Username())
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestDSN_KeepsSSLMode(t *testing.T) {
	dsn, err := DSN(config.SupabaseConfig{URL: "postgresql://app@localhost/medimate?sslmode=disable", Key: "k"})
	require.NoError(t, err)
	u, _ := url.Parse(dsn)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "app", u.User.Username())
}

func TestDSN_RejectsRestURL(t *testing.T) {
	_, err := DSN(config.SupabaseConfig{URL: "https://abc.supabase.co", Key: "k"})
	assert.Error(t, err)
}
