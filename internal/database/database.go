package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Connect opens the database named by cfg.DatabaseURL and migrates the
// schema. postgres:// and postgresql:// URLs select Postgres; anything else
// is a sqlite path (":memory:" included).
func Connect(cfg *config.Config, logg *logger.Logger) (*gorm.DB, error) {
	logg = logger.OrNop(logg).With("component", "database")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dialector, driver := open(cfg.DatabaseURL)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		// sqlite allows one writer; a single connection also keeps an
		// in-memory database alive for the life of the pool.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logg.Info("database ready", "driver", driver)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.User{}, &models.Achievement{}, &models.Report{}, &models.Award{})
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

func open(url string) (gorm.Dialector, string) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.Open(url), "postgres"
	}
	if url == "" {
		url = "sightings.db"
	}
	if url != ":memory:" && !strings.Contains(url, "?") {
		url += "?_busy_timeout=5000&_foreign_keys=on"
	}
	return sqlite.Open(url), "sqlite"
}
