package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/calorbunga/backend/internal/database"
	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestStore(t *testing.T) *LogStore {
	t.Helper()
	return NewLogStore(newTestDB(t), "test-namespace", logger.NewNop())
}

func entryWithStats(day string, ts int64, stats models.NutritionEstimate) *models.FoodLogEntry {
	return &models.FoodLogEntry{
		Name:      "test item",
		Date:      day,
		Time:      "12:00",
		Timestamp: ts,
		Stats:     stats,
	}
}
