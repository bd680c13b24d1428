package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/exovet/supportbot/internal/domain/models"
	"github.com/exovet/supportbot/internal/repository/sqlite"
	"github.com/exovet/supportbot/pkg/logger"
)

const seedRecordCount = 50

var exoticAnimals = []string{"Iguana", "Chameleon", "Ferret", "Parrot", "Tarantula"}

// Seeds the consultation table with sample records so the analytics
// commands have something to report on.
func main() {
	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	// Only the database path matters here; bot credentials are not needed
	// to seed, so skip full config validation.
	_ = godotenv.Load()
	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "support_bot.db"
	}

	store, err := sqlite.NewSQLiteRepository(path)
	if err != nil {
		baseLogger.Fatal("failed to init sqlite repository", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	now := time.Now()

	for i := 0; i < seedRecordCount; i++ {
		duration := rand.Intn(51) + 10
		record := models.Consultation{
			UserID:           int64(rand.Intn(21) + 1000),
			AnimalType:       exoticAnimals[rand.Intn(len(exoticAnimals))],
			ConsultationDate: now.AddDate(0, 0, -rand.Intn(61)),
			DurationMinutes:  &duration,
		}

		if err := store.Insert(ctx, &record); err != nil {
			baseLogger.Fatal("failed to insert seed record", zap.Error(err))
		}
	}

	baseLogger.Info("database seeded",
		zap.Int("records", seedRecordCount),
		zap.String("path", path))
}
