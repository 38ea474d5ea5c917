// Package config loads service settings: defaults, then an optional YAML file,
// then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"cafesched/internal/logx"
	"cafesched/internal/menu"
	"cafesched/internal/model"
	"cafesched/internal/schedule"
)

type Server struct {
	Port      string  `yaml:"port"`
	RateRPS   float64 `yaml:"rateRps"`
	RateBurst int     `yaml:"rateBurst"`
}

type Database struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type Redis struct {
	URL string `yaml:"url"`
}

type Webhooks struct {
	MaxAttempts int `yaml:"maxAttempts"`
}

type Config struct {
	Server     Server         `yaml:"server"`
	Database   Database       `yaml:"database"`
	Redis      Redis          `yaml:"redis"`
	Webhooks   Webhooks       `yaml:"webhooks"`
	Log        logx.Config    `yaml:"log"`
	Menu       menu.Menu      `yaml:"menu"`
	Durations  map[string]int `yaml:"durations"`
	ServeStyle string         `yaml:"serveStyle"`
}

func Default() Config {
	return Config{
		Server:   Server{Port: "8080", RateRPS: 0, RateBurst: 20},
		Database: Database{Migrate: true},
		Webhooks: Webhooks{MaxAttempts: 10},
		Log:      logx.Config{Level: "info", Format: "console"},
		Menu:     menu.Default(),
	}
}

// Load reads path (if non-empty) over the defaults and applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := getenv("DB_MIGRATE"); v != "" {
		cfg.Database.Migrate = v != "false" && v != "0"
	}
	if v := getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateRPS = f
		}
	}
	if v := getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.RateBurst = n
		}
	}
	if v := getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Webhooks.MaxAttempts = n
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv("SERVE_STYLE"); v != "" {
		cfg.ServeStyle = v
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("config: server.port required")
	}
	if c.Server.RateRPS < 0 {
		return fmt.Errorf("config: server.rateRps must be >= 0")
	}
	if err := c.Menu.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.TaskDurations(); err != nil {
		return err
	}
	if _, err := schedule.ParseServeStyle(c.ServeStyle); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// TaskDurations converts the durations section into the scheduler's mapping.
// Keys are task types (MAKE_SANDWICH, SERVE, BREAK), case-insensitive.
func (c Config) TaskDurations() (schedule.Durations, error) {
	out := schedule.Durations{}
	for k, v := range c.Durations {
		tt := model.TaskType(strings.ToUpper(strings.TrimSpace(k)))
		switch tt {
		case model.MakeSandwich, model.Serve, model.Break:
		default:
			return nil, fmt.Errorf("config: unknown task type %q in durations", k)
		}
		if v < 0 {
			return nil, fmt.Errorf("config: duration for %s must be >= 0", tt)
		}
		out[tt] = v
	}
	return out, nil
}

// SchedulerOptions turns the scheduling sections into scheduler options.
// Call after Validate.
func (c Config) SchedulerOptions() []schedule.Option {
	d, _ := c.TaskDurations()
	style, _ := schedule.ParseServeStyle(c.ServeStyle)
	return []schedule.Option{
		schedule.WithMenu(c.Menu),
		schedule.WithDurations(d),
		schedule.WithServeStyle(style),
	}
}
