package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadsheet-hooks/internal/common/config"
)

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.NotNil(t, client.GetClient())

	mr.Close()
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedisClient_CloseNil(t *testing.T) {
	assert.NoError(t, (&RedisClient{}).Close())
}
