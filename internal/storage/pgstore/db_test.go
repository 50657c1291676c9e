package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPoolOptions(t *testing.T) {
	config, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)

	baseMax := config.MaxConns

	PoolOptions{MinConns: 3, MaxConnLifetime: 2 * time.Hour}.apply(config)

	assert.Equal(t, baseMax, config.MaxConns)
	assert.Equal(t, int32(3), config.MinConns)
	assert.Equal(t, 2*time.Hour, config.MaxConnLifetime)

	DefaultPoolOptions().apply(config)
	assert.Equal(t, defaultMaxConns, config.MaxConns)
	assert.Equal(t, defaultHealthCheckPeriod, config.HealthCheckPeriod)
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(context.Background(), "postgres://%zz", DefaultPoolOptions(), nil)
	assert.Error(t, err)
}

func TestConnectWithRetries_StopsOnCancel(t *testing.T) {
	config, err := pgxpool.ParseConfig("postgres://u:p@127.0.0.1:1/db?connect_timeout=1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := &DB{Logger: nopLogger(), retrySleep: time.Millisecond}

	err = db.connectWithRetries(ctx, config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListTableSQL(t *testing.T) {
	assert.Contains(t, tableUserChats.insertSQL(), "INSERT INTO user_chats")
	assert.Contains(t, tableUserChats.insertSQL(), "ON CONFLICT (user_id, value) DO NOTHING")
	assert.Contains(t, tableUserQueries.listSQL(), "FROM user_queries")
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "ok", sanitizeUTF8("ok"))
	assert.Equal(t, "ab", sanitizeUTF8("a\xffb"))
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
