package database

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"osint-stories/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Config holds database configuration
type Config struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	LogLevel     string
	MaxOpenConns int
}

// LoadConfig loads database configuration from environment variables
func LoadConfig() *Config {
	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "20"))
	if err != nil || maxOpen < 1 {
		maxOpen = 20
	}

	return &Config{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", "postgres"),
		Password:     getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "osint_stories"),
		SSLMode:      getEnv("DB_SSLMODE", "disable"),
		LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		MaxOpenConns: maxOpen,
	}
}

// DSN builds the Postgres connection string. The password is omitted when empty.
func (c *Config) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.DBName, c.SSLMode,
	)
	if c.Password != "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		)
	}
	return dsn
}

// String hides the password when the config is logged
func (c *Config) String() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s log=%s",
		c.Host, c.Port, c.User, c.DBName, c.SSLMode, c.LogLevel)
}

// GormConfig returns the gorm settings shared by every connection
func GormConfig(level string) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(ParseLogLevel(level)),
		TranslateError: true,
	}
}

// ParseLogLevel maps a DB_LOG_LEVEL value to a gorm log level
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Connect establishes a connection to the PostgreSQL database
func Connect(config *Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(config.DSN()), GormConfig(config.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)

	log.Println("Successfully connected to database")
	return nil
}

// Migrate runs database migrations
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}

	err := models.AutoMigrate(DB)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
