package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr            string        `env:"AUCTION_ADDR" envDefault:":8080"`
	DBDriver        string        `env:"AUCTION_DB_DRIVER" envDefault:"sqlite"`
	DBPath          string        `env:"AUCTION_DB_PATH" envDefault:"auction_dice_final.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	LogLevel        string        `env:"AUCTION_LOG_LEVEL" envDefault:"info"`
	LogDev          bool          `env:"AUCTION_LOG_DEV" envDefault:"false"`
	StartingPoints  int           `env:"AUCTION_STARTING_POINTS" envDefault:"1000"`
	ShutdownTimeout time.Duration `env:"AUCTION_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IndexFile       string        `env:"AUCTION_INDEX_FILE" envDefault:"index.html"`
	RoomTTL         time.Duration `env:"AUCTION_ROOM_TTL" envDefault:"24h"`
	WSOrigins       []string      `env:"AUCTION_WS_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: AUCTION_DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DBDriver)
	}
	if c.StartingPoints <= 0 {
		return fmt.Errorf("config: starting points must be positive, got %d", c.StartingPoints)
	}
	if c.RoomTTL < 0 {
		return fmt.Errorf("config: room ttl must not be negative, got %s", c.RoomTTL)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
