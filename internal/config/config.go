package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"immitrack/internal/models"
)

const DefaultPath = "config/config.yaml"

type FilesConfig struct {
	RootDir  string `yaml:"root_dir"`
	FontPath string `yaml:"font_path"`
}

type AuthConfig struct {
	JWTSecret string           `yaml:"jwt_secret"`
	TokenTTL  time.Duration    `yaml:"token_ttl"`
	Accounts  []models.Account `yaml:"accounts"`
}

type StateConfig struct {
	FundsTaskID        string `yaml:"funds_task_id"`
	ReconcileOnFailure bool   `yaml:"reconcile_on_failure"`
}

type TelegramConfig struct {
	BotToken string  `yaml:"bot_token"`
	ChatIDs  []int64 `yaml:"chat_ids"`
}

type DigestConfig struct {
	HorizonDays int           `yaml:"horizon_days"`
	Interval    time.Duration `yaml:"interval"` // 0 disables the scheduled digest in serve
}

type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	TimeZone        string `yaml:"time_zone"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"` // postgres | pgx | memory
		DSN    string `yaml:"url"`
	} `yaml:"database"`
	Auth  AuthConfig  `yaml:"auth"`
	State StateConfig `yaml:"state"`
	Email struct {
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     int      `yaml:"smtp_port"`
		SMTPUser     string   `yaml:"smtp_user"`
		SMTPPassword string   `yaml:"smtp_password"`
		FromEmail    string   `yaml:"from_email"`
		To           []string `yaml:"to"`
	} `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Digest   DigestConfig   `yaml:"digest"`
	Calendar CalendarConfig `yaml:"calendar"`
	Files    FilesConfig    `yaml:"files"`
}

// Path resolves the config location: explicit flag, then IMMITRACK_CONFIG, then the default.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("IMMITRACK_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML file at path. A missing file yields the defaults so the
// service can run from environment variables alone.
func Load(path string) (*Config, error) {
	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 72 * time.Hour
	}
	if cfg.State.FundsTaskID == "" {
		cfg.State.FundsTaskID = "10"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Digest.HorizonDays == 0 {
		cfg.Digest.HorizonDays = 14
	}
	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = "primary"
	}
	if cfg.Calendar.TimeZone == "" {
		cfg.Calendar.TimeZone = "Africa/Douala"
	}
	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	if cfg.Files.FontPath == "" {
		cfg.Files.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "memory":
	default:
		return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
	}
	if c.Digest.HorizonDays < 0 {
		return fmt.Errorf("digest.horizon_days must be positive")
	}
	return nil
}

// EmailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPHost != "" && len(c.Email.To) > 0
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && len(c.Telegram.ChatIDs) > 0
}
