package database

import (
	"fmt"
	"time"

	"answerdesk/chat-api/internal/infrastructure/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

const tablePrefix = "chat_api."

var SchemaRegistry []interface{}

func RegisterSchemaForAutoMigrate(models ...interface{}) {
	SchemaRegistry = append(SchemaRegistry, models...)
}

// Config holds database configuration
type Config struct {
	DatabaseURL     string
	DatabaseReadURL string
	MaxIdle         int
	MaxOpen         int
	MaxLifetime     time.Duration
	LogLevel        gormlogger.LogLevel
}

// Connect creates a new database connection with the given configuration.
// When a read replica URL is configured, reads route through it via
// dbresolver while writes stay on the primary.
func Connect(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   tablePrefix,
			SingularTable: false,
		},
		Logger: gormlogger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Msg("unable to connect to database")
		return nil, err
	}

	if cfg.DatabaseReadURL != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(cfg.DatabaseReadURL)},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	log := logger.GetLogger()
	log.Info().Msg("Successfully connected to database")
	return db, nil
}

// NewDB creates a database connection with pool defaults.
func NewDB(dsn, readDSN string) (*gorm.DB, error) {
	return Connect(Config{
		DatabaseURL:     dsn,
		DatabaseReadURL: readDSN,
		MaxIdle:         10,
		MaxOpen:         25,
		MaxLifetime:     1 * time.Hour,
		LogLevel:        gormlogger.Silent,
	})
}

// Migration creates the service schema and auto-migrates every registered
// model. Safe to run on every boot; AutoMigrate only adds missing columns
// and indexes.
func Migration(db *gorm.DB) error {
	schemaName := tablePrefix[:len(tablePrefix)-1]
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", schemaName)).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}

	for _, model := range SchemaRegistry {
		if err := db.AutoMigrate(model); err != nil {
			log := logger.GetLogger()
			log.Error().Err(err).Msgf("failed to auto migrate schema: %T", model)
			return err
		}
	}
	return nil
}
