package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by the CLI.
const (
	StoreSQLite     = "sqlite"
	StoreGormSQLite = "gorm-sqlite"
	StorePostgres   = "postgres"
	StoreMemory     = "memory"
)

// Config holds runtime settings resolved from .env, the environment and flags.
type Config struct {
	Store       string
	DBPath      string
	DatabaseURL string
	ContentDir  string // empty means the embedded sample courses
	LogMode     string
	WriterFlush time.Duration
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error. The result is not validated: callers
// apply their overrides and then call Validate.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Config{
		Store:       String("CLEVERDEN_STORE", StoreSQLite),
		DBPath:      String("CLEVERDEN_DB", "cleverden.db"),
		DatabaseURL: String("DATABASE_URL", ""),
		ContentDir:  String("CLEVERDEN_CONTENT_DIR", ""),
		LogMode:     String("LOG_MODE", "dev"),
		WriterFlush: time.Duration(Int("CLEVERDEN_WRITER_FLUSH_MS", 250)) * time.Millisecond,
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreGormSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("store %q requires a database path", c.Store)
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("store %q requires DATABASE_URL", c.Store)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.WriterFlush < 0 {
		return fmt.Errorf("writer flush interval must not be negative")
	}
	return nil
}

// String returns the trimmed env value or def when unset.
func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

// Int returns the env value parsed as int, or def when unset or malformed.
func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
