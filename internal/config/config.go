package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN"`
	GuildIDs     []string `env:"DISCORD_GUILD_IDS" envSeparator:","` // Empty registers commands globally
	DisableBot   bool     `env:"DISABLE_BOT"`

	ServerPort   int    `env:"PORT"          envDefault:"5000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./guildvault.db"`
	BackupPath   string `env:"BACKUP_PATH"   envDefault:"./backups"`

	JWTSecret             string        `env:"JWT_SECRET"`
	JWTTTL                time.Duration `env:"JWT_TTL"                 envDefault:"24h"`
	DashboardUsername     string        `env:"DASHBOARD_USERNAME"      envDefault:"admin"`
	DashboardPasswordHash string        `env:"DASHBOARD_PASSWORD_HASH"` // bcrypt; empty disables login
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS"         envDefault:"http://localhost:3000" envSeparator:","`

	LogLevel      string        `env:"LOG_LEVEL"      envDefault:"info"`
	StatsInterval time.Duration `env:"STATS_INTERVAL" envDefault:"15s"`
	AppEnv        string        `env:"APP_ENV"        envDefault:"development"`
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables win.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DiscordToken == "" && !c.DisableBot {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if c.DashboardPasswordHash != "" && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when DASHBOARD_PASSWORD_HASH is set"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.ServerPort))
	}
	if c.StatsInterval <= 0 {
		errs = append(errs, errors.New("STATS_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}
