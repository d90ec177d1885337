package config

import (
	"os"
	"time"

	"flag-quiz-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendPocketBase = "pocketbase"
	BackendPostgres   = "postgres"
	BackendMemory     = "memory"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	PocketBase struct {
		URL           string `yaml:"url"`
		Timeout       string `yaml:"timeout"`
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"pocketbase"`
	Store struct {
		Backend string `yaml:"backend"`
	} `yaml:"store"`
	Quiz struct {
		Modes         []domain.GameMode `yaml:"modes"`
		CountryTTL    string            `yaml:"country_ttl"`
		GameTTL       string            `yaml:"game_ttl"`
		SourceTimeout string            `yaml:"source_timeout"`
	} `yaml:"quiz"`
	Leaderboard struct {
		TopN int `yaml:"top_n"`
	} `yaml:"leaderboard"`
	Mail struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		To       string `yaml:"to"`
	} `yaml:"mail"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Default returns the settings used for anything the YAML file leaves out.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.Log.Level = "info"
	cfg.PocketBase.Timeout = "10s"
	cfg.Store.Backend = BackendMemory
	cfg.Quiz.Modes = []domain.GameMode{
		{Name: "world", Questions: 15},
		{Name: "europe", Region: "Europe", Questions: 10},
	}
	cfg.Quiz.CountryTTL = "1h"
	cfg.Quiz.GameTTL = "2h"
	cfg.Quiz.SourceTimeout = "5s"
	cfg.Leaderboard.TopN = 5
	cfg.Mail.Port = 587
	cfg.Kafka.Topic = "quiz.scores"
	cfg.RateLimit.PerSecond = 5
	cfg.RateLimit.Burst = 20
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	return cfg, nil
}

// MailEnabled reports whether enough SMTP settings exist to send reports.
func (c Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.From != "" && c.Mail.To != ""
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
