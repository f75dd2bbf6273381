package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "analyst")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	config := LoadConfig()

	assert.Equal(t, "db.internal", config.Host)
	assert.Equal(t, "6543", config.Port)
	assert.Equal(t, "analyst", config.User)
	assert.Equal(t, "osint_stories", config.DBName)
	assert.Equal(t, "disable", config.SSLMode)
	assert.Equal(t, 20, config.MaxOpenConns)
}

func TestConfig_DSN(t *testing.T) {
	config := &Config{Host: "h", Port: "1", User: "u", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u dbname=d sslmode=disable", config.DSN())

	config.Password = "secret"
	assert.Equal(t, "host=h port=1 user=u password=secret dbname=d sslmode=disable", config.DSN())
	assert.NotContains(t, config.String(), "secret")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Error, ParseLogLevel("ERROR"))
	assert.Equal(t, logger.Info, ParseLogLevel("info"))
	assert.Equal(t, logger.Warn, ParseLogLevel(""))
}
