package database

import (
	"fmt"
	"log"

	"startup-fund/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models and seeds the
// singleton game_state row.
func AutoMigrate() error {
	ledgerModels := []interface{}{
		&models.Investor{},
		&models.Startup{},
		&models.Investment{},
		&models.FundsRequest{},
		&models.GameState{},
		&models.AdminLog{},
	}

	for _, model := range ledgerModels {
		if err := DB.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	if err := SeedGameState(DB); err != nil {
		return fmt.Errorf("failed to seed game state: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedGameState ensures the singleton lock row exists
func SeedGameState(db *gorm.DB) error {
	var state models.GameState
	err := db.First(&state, models.GameStateID).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&models.GameState{ID: models.GameStateID, Locked: false}).Error
	}
	return err
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
