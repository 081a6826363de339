package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOptions() ConnOptions {
	return ConnOptions{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "secret",
		DBName:   "storefront",
		SSLMode:  "disable",
	}
}

func TestGenerateConnectionString(t *testing.T) {
	opts := validOptions()
	opts.PoolSize = 10
	opts.Timeout = 5 * time.Second
	opts.ApplicationName = "storefront api"

	dsn, err := GenerateConnectionString(opts)
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=storefront sslmode=disable "+
		"application_name='storefront api' connect_timeout=5 pool_max_conns=10", dsn)

	opts = validOptions()
	opts.Password = `it's a\secret`
	dsn, err = GenerateConnectionString(opts)
	require.NoError(t, err)
	assert.Contains(t, dsn, `password='it\'s a\\secret'`)

	tests := []struct {
		name   string
		err    error
		mutate func(*ConnOptions)
	}{
		{"empty host", ErrStorageEmptyHostName, func(o *ConnOptions) { o.Host = "" }},
		{"bad port", ErrStorageInvalidPortNumber, func(o *ConnOptions) { o.Port = 70000 }},
		{"empty user", ErrStorageEmptyUsername, func(o *ConnOptions) { o.User = "" }},
		{"empty db", ErrStorageInvalidDatabaseName, func(o *ConnOptions) { o.DBName = "" }},
		{"negative timeout", ErrStorageInvalidTimeout, func(o *ConnOptions) { o.Timeout = -time.Second }},
		{"negative pool", ErrStorageInvalidPoolSize, func(o *ConnOptions) { o.PoolSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			_, err := GenerateConnectionString(o)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
