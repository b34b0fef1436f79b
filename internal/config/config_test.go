package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 60*time.Second, cfg.RankingCacheTTL())
	assert.Empty(t, cfg.ReceiptMailbox)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RANKING_CACHE_TTL_SECONDS", "5")
	t.Setenv("RECEIPT_MAILBOX", "books@duckshop.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RankingCacheTTL())
	assert.Equal(t, "books@duckshop.test", cfg.ReceiptMailbox)
}
