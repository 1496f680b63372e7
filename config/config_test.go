package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(299), cfg.DeliveryFeeCents)
	assert.Equal(t, 2*time.Second, cfg.RecommendTimeout)
	assert.Equal(t, 24*time.Hour, cfg.DedupeTTL)
	assert.Equal(t, 2*time.Hour, cfg.OrderTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nlock_ttl: 3s\nlog_format: json\n"), 0o600))
	t.Setenv("FOODBOT_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("FOODBOT_DELIVERY_FEE_CENTS", "450")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(450), cfg.DeliveryFeeCents)
}

func TestLoadConfigValidates(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("FOODBOT_LOG_FORMAT", "xml")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogFormat")
}

func TestLoadConfigMissingFile(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitDB(t *testing.T) {
	dir := t.TempDir()
	db, err := InitDB(filepath.Join(dir, "bot.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.True(t, db.Migrator().HasTable("orders"))
	assert.False(t, db.Migrator().HasTable("wallets"))

	ledger, err := InitLedgerDB(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	ledgerDB, err := ledger.DB()
	require.NoError(t, err)
	defer ledgerDB.Close()
	assert.True(t, ledger.Migrator().HasTable("wallets"))
}
