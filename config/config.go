package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends accepted in DB_TYPE.
const (
	StoreMemory   = "memory"
	StoreJSON     = "json"
	StorePostgres = "postgres"
)

// Config holds the server launch parameters.
type Config struct {
	Port         string
	MapWidth     int
	MapHeight    int
	TickInterval time.Duration
	// Seed drives world generation and every later random draw.
	// Zero means "pick one from the clock".
	Seed int64

	StoreType   string
	StoreFile   string
	DatabaseURL string
}

// Default returns the reference settings: a 30x30 map ticking once per second.
func Default() Config {
	return Config{
		Port:         "3000",
		MapWidth:     30,
		MapHeight:    30,
		TickInterval: time.Second,
		StoreType:    StoreMemory,
		StoreFile:    "sessions.json",
		DatabaseURL:  "host=localhost user=tileworld password=tileworld dbname=tileworld sslmode=disable",
	}
}

// Load reads the configuration from the environment on top of Default.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Port = v
	}

	var err error
	if cfg.MapWidth, err = positiveInt(lookup, "MAP_WIDTH", cfg.MapWidth); err != nil {
		return Config{}, err
	}
	if cfg.MapHeight, err = positiveInt(lookup, "MAP_HEIGHT", cfg.MapHeight); err != nil {
		return Config{}, err
	}

	tickMs, err := positiveInt(lookup, "TICK_INTERVAL_MS", int(cfg.TickInterval/time.Millisecond))
	if err != nil {
		return Config{}, err
	}
	cfg.TickInterval = time.Duration(tickMs) * time.Millisecond

	if v, ok := lookup("SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEED %q: %w", v, err)
		}
		cfg.Seed = seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if v, ok := lookup("DB_TYPE"); ok && v != "" {
		switch v {
		case StoreMemory, StoreJSON, StorePostgres:
			cfg.StoreType = v
		default:
			return Config{}, fmt.Errorf("unknown DB_TYPE %q", v)
		}
	}
	if v, ok := lookup("DB_FILE"); ok && v != "" {
		cfg.StoreFile = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.DatabaseURL = v
	}

	return cfg, nil
}

func positiveInt(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
