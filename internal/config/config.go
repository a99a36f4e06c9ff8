package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Remote struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"remote"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"cache"`

	Sync struct {
		ShiftTTL        string `yaml:"shift_ttl"`
		LeaderboardTTL  string `yaml:"leaderboard_ttl"`
		ReconcileWindow string `yaml:"reconcile_window"`
		PastDays        int    `yaml:"past_days"`
		FutureDays      int    `yaml:"future_days"`
	} `yaml:"sync"`

	State struct {
		// Dir donde viven credentials.yaml y hardware_id
		Dir string `yaml:"dir"`
	} `yaml:"state"`

	Debug struct {
		// Addr del server de status/metrics; vacío = deshabilitado
		Addr string `yaml:"addr"`
	} `yaml:"debug"`
}

// Load lee el YAML, aplica defaults y valida las duraciones en string.
// path vacío usa solo defaults (útil para la CLI sin archivo de config).
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// env overrides
	if v := os.Getenv("CREWSYNC_REMOTE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("CREWSYNC_STATE_DIR"); v != "" {
		c.State.Dir = v
	}

	// sane defaults
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = "https://api.crewsync.app"
	}
	if c.Remote.Timeout == "" {
		c.Remote.Timeout = "15s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Sync.ShiftTTL == "" {
		c.Sync.ShiftTTL = "5m"
	}
	if c.Sync.LeaderboardTTL == "" {
		c.Sync.LeaderboardTTL = "50m" // ~10x shift_ttl, los rankings cambian lento
	}
	if c.Sync.ReconcileWindow == "" {
		c.Sync.ReconcileWindow = "1h"
	}
	if c.Sync.PastDays == 0 {
		c.Sync.PastDays = 365
	}
	if c.Sync.FutureDays == 0 {
		c.Sync.FutureDays = 60
	}
	if c.State.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.State.Dir = filepath.Join(home, ".crewsync")
	}

	// validate string durations
	for name, v := range map[string]string{
		"remote.timeout":        c.Remote.Timeout,
		"sync.shift_ttl":        c.Sync.ShiftTTL,
		"sync.leaderboard_ttl":  c.Sync.LeaderboardTTL,
		"sync.reconcile_window": c.Sync.ReconcileWindow,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config %s: %w", name, err)
		}
	}
	return &c, nil
}

// Dur parsea una duración ya validada por Load.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// CredentialsPath es el archivo único donde se persiste la lista completa
// de credenciales.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.State.Dir, "credentials.yaml")
}

// HardwareIDPath es el archivo donde vive el identificador del dispositivo.
func (c *Config) HardwareIDPath() string {
	return filepath.Join(c.State.Dir, "hardware_id")
}
