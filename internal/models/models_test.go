package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	for _, model := range AllModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}

	now := time.Now()
	labelled := Story{ID: uuid.New(), Title: "labelled", Created: now, Updated: now, SourceLabels: Labels{"wire", "cisa"}}
	empty := Story{ID: uuid.New(), Title: "empty", Created: now, Updated: now}
	require.NoError(t, db.Create(&labelled).Error)
	require.NoError(t, db.Create(&empty).Error)

	var got Story
	require.NoError(t, db.First(&got, "id = ?", labelled.ID).Error)
	assert.Equal(t, Labels{"wire", "cisa"}, got.SourceLabels)

	got = Story{}
	require.NoError(t, db.First(&got, "id = ?", empty.ID).Error)
	assert.Empty(t, got.SourceLabels)
}
