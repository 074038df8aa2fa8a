// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | noop (log only, no Telegram connection)
	Username string  `yaml:"username"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
	// ChannelURL is shown in the limit-reached message and the "Join Channel" button.
	ChannelURL string `yaml:"channel_url"`
	// CommandsPerMinute bounds how often one user may hit the same command.
	CommandsPerMinute int `yaml:"commands_per_minute"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
	File     string `yaml:"file"`     // optional rotating log file
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite | memory
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // openai | gemini | noop
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	MaxInputTokens  int    `yaml:"max_input_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type TranslateConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type OCRConfig struct {
	Provider string        `yaml:"provider"` // http | gemini
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type MediaConfig struct {
	YouTubeURL   string        `yaml:"youtube_url"`
	TikTokURL    string        `yaml:"tiktok_url"`
	DownloadsDir string        `yaml:"downloads_dir"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAge       time.Duration `yaml:"max_age"`
	Workers      int           `yaml:"workers"`
}

type QuotaConfig struct {
	DailyCap    int    `yaml:"daily_cap"`
	Mode        string `yaml:"mode"`         // racy | atomic
	PremiumMode string `yaml:"premium_mode"` // bypass | record
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Translate TranslateConfig `yaml:"translate"`
	OCR       OCRConfig       `yaml:"ocr"`
	Media     MediaConfig     `yaml:"media"`
	Quota     QuotaConfig     `yaml:"quota"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path. A .env file next to the binary is loaded first
// (if present) so the YAML may reference secrets as ${VAR}.
func LoadConfig(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b, dev)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands ${VAR} references, unmarshals, applies defaults and validates.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	c.Bot.Mode = strings.ToLower(strings.TrimSpace(c.Bot.Mode))
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.CommandsPerMinute <= 0 {
		c.Bot.CommandsPerMinute = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
		if c.Runtime.Dev && c.Database.URL == "" {
			c.Database.Driver = "memory"
		}
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.AI.Provider == "" {
		switch {
		case c.AI.OpenAIKey != "":
			c.AI.Provider = "openai"
		case c.AI.GeminiKey != "":
			c.AI.Provider = "gemini"
		default:
			c.AI.Provider = "noop"
		}
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-4o-mini"
	}
	if c.AI.MaxOutputTokens <= 0 {
		c.AI.MaxOutputTokens = 1024
	}
	if c.AI.MaxInputTokens <= 0 {
		c.AI.MaxInputTokens = 2000
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}

	if c.Translate.Timeout <= 0 {
		c.Translate.Timeout = 15 * time.Second
	}
	if c.OCR.Provider == "" {
		c.OCR.Provider = "http"
	}
	if c.OCR.Timeout <= 0 {
		c.OCR.Timeout = 60 * time.Second
	}

	if c.Media.DownloadsDir == "" {
		c.Media.DownloadsDir = "downloads"
	}
	if c.Media.Timeout <= 0 {
		c.Media.Timeout = 5 * time.Minute
	}
	if c.Media.MaxAge <= 0 {
		c.Media.MaxAge = time.Hour
	}
	if c.Media.Workers <= 0 {
		c.Media.Workers = 4
	}

	if c.Quota.DailyCap <= 0 {
		c.Quota.DailyCap = 10
	}
	c.Quota.Mode = strings.ToLower(strings.TrimSpace(c.Quota.Mode))
	if c.Quota.Mode == "" {
		c.Quota.Mode = "racy"
	}
	c.Quota.PremiumMode = strings.ToLower(strings.TrimSpace(c.Quota.PremiumMode))
	if c.Quota.PremiumMode == "" {
		c.Quota.PremiumMode = "bypass"
	}
}

func (c *Config) validate() error {
	switch c.Bot.Mode {
	case "polling":
		if c.Bot.Token == "" {
			return errors.New("bot.token is required")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown bot.mode %q", c.Bot.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.Quota.Mode {
	case "racy", "atomic":
	default:
		return fmt.Errorf("unknown quota.mode %q", c.Quota.Mode)
	}
	switch c.Quota.PremiumMode {
	case "bypass", "record":
	default:
		return fmt.Errorf("unknown quota.premium_mode %q", c.Quota.PremiumMode)
	}
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required for provider openai")
		}
	case "gemini":
		if c.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key is required for provider gemini")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	if strings.TrimSpace(c.Translate.URL) == "" {
		return errors.New("translate.url is required")
	}
	switch c.OCR.Provider {
	case "http":
		if strings.TrimSpace(c.OCR.URL) == "" {
			return errors.New("ocr.url is required for provider http")
		}
	case "gemini":
	default:
		return fmt.Errorf("unknown ocr.provider %q", c.OCR.Provider)
	}
	if c.OCR.Provider == "gemini" && c.AI.GeminiKey == "" {
		return errors.New("ocr.provider gemini requires ai.gemini_key")
	}
	return nil
}

// HasRedis reports whether a redis endpoint is configured.
func (c *Config) HasRedis() bool { return c.Redis.URL != "" }

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
