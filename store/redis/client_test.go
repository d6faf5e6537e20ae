package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, []string{"localhost:6379"}, cfg.Addrs)
	assert.Equal(t, 3, cfg.Protocol)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigMode(t *testing.T) {
	assert.Equal(t, "single", (&Config{Addrs: []string{"a:1"}}).Mode())
	assert.Equal(t, "cluster", (&Config{Addrs: []string{"a:1", "b:1"}}).Mode())
	assert.Equal(t, "sentinel", (&Config{Addrs: []string{"a:1"}, MasterName: "m"}).Mode())
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrEmptyAddrs)
	assert.ErrorIs(t, (&Config{Addrs: []string{"a:1"}, ReadTimeout: -1}).Validate(), ErrInvalidTimeout)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewLive(t *testing.T) {
	addr := os.Getenv("BLAZE_TEST_REDIS")
	if addr == "" {
		t.Skip("BLAZE_TEST_REDIS not set")
	}

	c, err := New(context.Background(), &Config{Addrs: []string{addr}}, WithDebug(100*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))
	assert.NotNil(t, c.UniversalClient())
}
