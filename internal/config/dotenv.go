package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	PublicURL                string
	HeartbeatIdle            time.Duration
	HeartbeatHard            time.Duration
	HeartbeatCheckInterval   time.Duration
	ResyncInterval           time.Duration
	ForceResyncDelay         time.Duration
	ReconnectDelay           time.Duration
	ReconnectJitter          time.Duration
	DragTimeout              time.Duration
	DebounceWindow           time.Duration
	MinMovement              float64
	AdminPassword            string
	PlayerPassword           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		PublicURL:                "http://localhost:8080",
		HeartbeatIdle:            120 * time.Second,
		HeartbeatHard:            300 * time.Second,
		HeartbeatCheckInterval:   30 * time.Second,
		ResyncInterval:           10 * time.Second,
		ForceResyncDelay:         2 * time.Second,
		ReconnectDelay:           10 * time.Second,
		ReconnectJitter:          1500 * time.Millisecond,
		DragTimeout:              10 * time.Second,
		DebounceWindow:           120 * time.Millisecond,
		MinMovement:              5,
		AdminPassword:            "admin",
		PlayerPassword:           "player",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("PUBLIC_URL"); raw != "" {
		cfg.PublicURL = raw
	}
	cfg.HeartbeatIdle = durationEnv("HEARTBEAT_IDLE_SECONDS", time.Second, cfg.HeartbeatIdle)
	cfg.HeartbeatHard = durationEnv("HEARTBEAT_HARD_SECONDS", time.Second, cfg.HeartbeatHard)
	cfg.HeartbeatCheckInterval = durationEnv("HEARTBEAT_CHECK_SECONDS", time.Second, cfg.HeartbeatCheckInterval)
	cfg.ResyncInterval = durationEnv("RESYNC_SECONDS", time.Second, cfg.ResyncInterval)
	cfg.ForceResyncDelay = durationEnv("FORCE_RESYNC_SECONDS", time.Second, cfg.ForceResyncDelay)
	cfg.ReconnectDelay = durationEnv("RECONNECT_SECONDS", time.Second, cfg.ReconnectDelay)
	cfg.ReconnectJitter = durationEnv("RECONNECT_JITTER_MS", time.Millisecond, cfg.ReconnectJitter)
	cfg.DragTimeout = durationEnv("DRAG_TIMEOUT_SECONDS", time.Second, cfg.DragTimeout)
	cfg.DebounceWindow = durationEnv("DEBOUNCE_MS", time.Millisecond, cfg.DebounceWindow)
	if raw := os.Getenv("MIN_MOVE_PX"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.MinMovement = value
		}
	}
	if raw := os.Getenv("ADMIN_PASSWORD"); raw != "" {
		cfg.AdminPassword = raw
	}
	if raw := os.Getenv("PLAYER_PASSWORD"); raw != "" {
		cfg.PlayerPassword = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}

func durationEnv(key string, unit time.Duration, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return time.Duration(value) * unit
}
