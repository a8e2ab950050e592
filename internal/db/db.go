package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stable-reserve-backend/config"
	"stable-reserve-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Facility{},
		&model.Horse{},
		&model.Reservation{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableRangeIndexes {
		log.Println("Range indexes enabled, applying Postgres-specific DDL...")
		if err := applyRangeIndexDDL(db); err != nil {
			return nil, err
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyRangeIndexDDL creates a GIST index over the reservation interval so
// the overlap query (start_time <= X AND end_time >= Y) stays cheap as the
// table grows. The range is closed on both ends to match the inclusive
// overlap predicate the capacity sweep depends on.
func applyRangeIndexDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",
		"CREATE INDEX IF NOT EXISTS idx_reservations_facility_period ON reservations " +
			"USING GIST (facility_id, tstzrange(start_time, end_time, '[]'));",
		"CREATE INDEX IF NOT EXISTS idx_reservations_facility_status_start ON reservations " +
			"(facility_id, status, start_time);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
