// Package config loads the bot configuration.
//
// Precedence, lowest first: built-in defaults, the TOML file, .env and
// .env.local (never overriding variables already set), the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultPath = "tgdrive.toml"

type Config struct {
	Telegram  TelegramConfig  `toml:"telegram"`
	Drive     DriveConfig     `toml:"drive"`
	Selection SelectionConfig `toml:"selection"`
	Metrics   MetricsConfig   `toml:"metrics"`
	NineP     NinePConfig     `toml:"ninep"`
	Log       LogConfig       `toml:"log"`
}

type TelegramConfig struct {
	BotToken    string `toml:"bot_token"`
	APIEndpoint string `toml:"api_endpoint"`
	// AdminIDs are the only users the bot answers to.
	AdminIDs []int64 `toml:"admin_ids"`
	// StorageChannel receives a copy of every uploaded file.
	StorageChannel int64 `toml:"storage_channel"`
}

type DriveConfig struct {
	Backend           string `toml:"backend"` // bolt, postgres, memory
	BoltPath          string `toml:"bolt_path"`
	DatabaseURL       string `toml:"database_url"`
	DefaultFolderPath string `toml:"default_folder_path"`
	DefaultFolderName string `toml:"default_folder_name"`
}

type SelectionConfig struct {
	TTL         time.Duration `toml:"ttl"`
	MaxSessions int           `toml:"max_sessions"`
	AskTimeout  time.Duration `toml:"ask_timeout"`
}

type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// NinePConfig controls the read-only 9P export of the index. An empty
// address disables it.
type NinePConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			APIEndpoint: "https://api.telegram.org/bot%s/%s",
		},
		Drive: DriveConfig{
			Backend:           "bolt",
			BoltPath:          "tgdrive.bolt",
			DefaultFolderPath: "/",
			DefaultFolderName: "Home",
		},
		Selection: SelectionConfig{
			TTL:         10 * time.Minute,
			MaxSessions: 1024,
			AskTimeout:  60 * time.Second,
		},
		Metrics: MetricsConfig{
			ListenAddr: "127.0.0.1:9464",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// dotenv files and environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks what serving requires.
func (c Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.bot_token (MAIN_BOT_TOKEN) is required"))
	}
	if len(c.Telegram.AdminIDs) == 0 {
		errs = append(errs, errors.New("telegram.admin_ids (TELEGRAM_ADMIN_IDS) is required"))
	}
	if c.Telegram.StorageChannel == 0 {
		errs = append(errs, errors.New("telegram.storage_channel (STORAGE_CHANNEL) is required"))
	}
	switch c.Drive.Backend {
	case "bolt":
		if c.Drive.BoltPath == "" {
			errs = append(errs, errors.New("drive.bolt_path is required for the bolt backend"))
		}
	case "postgres":
		if c.Drive.DatabaseURL == "" {
			errs = append(errs, errors.New("drive.database_url (DATABASE_URL) is required for the postgres backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("drive.backend: unknown backend %q", c.Drive.Backend))
	}
	if c.Selection.AskTimeout <= 0 {
		errs = append(errs, errors.New("selection.ask_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func loadDotEnv(names ...string) error {
	for _, name := range names {
		values, err := godotenv.Read(name)
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if err := os.Setenv(k, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	if v := env("MAIN_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := env("TELEGRAM_API_ENDPOINT"); v != "" {
		cfg.Telegram.APIEndpoint = v
	}
	if v := env("TELEGRAM_ADMIN_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ADMIN_IDS: %w", err)
		}
		cfg.Telegram.AdminIDs = ids
	}
	if v := env("STORAGE_CHANNEL"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("STORAGE_CHANNEL: %w", err)
		}
		cfg.Telegram.StorageChannel = id
	}
	if v := env("TGDRIVE_BACKEND"); v != "" {
		cfg.Drive.Backend = v
	}
	if v := env("TGDRIVE_BOLT_PATH"); v != "" {
		cfg.Drive.BoltPath = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.Drive.DatabaseURL = v
	}
	if v := env("TGDRIVE_METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := env("TGDRIVE_9P_ADDR"); v != "" {
		cfg.NineP.ListenAddr = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseIDs parses a comma or space separated list of user ids.
func parseIDs(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
