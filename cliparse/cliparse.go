package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	JWTSecret    string
	IPHashSalt   string
	Env          string

	MetricsEnabled bool

	// Re-cast ballots keep the coefficient snapshotted on the first cast when true;
	// otherwise the unit's current coefficient is read again.
	PreserveOriginalWeight bool

	TelegramToken  string
	TelegramChatID int64
}

// ParseFlags builds the configuration. Precedence: flags, environment
// (optionally seeded from a .env file), config file, defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configFile, envFile string

	fs := flag.NewFlagSet("armonia", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "IP hash salt (prefer env)")

	fs.StringVar(&configFile, "c", "", "Optional config file (yaml, json or toml)")
	fs.StringVar(&envFile, "env-file", ".env", "Optional .env file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// .env never overrides variables already set in the environment
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault("port", 3318)
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("app_env", "production")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("preserve_original_weight", true)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Fall back to environment variables / config file
	if cfg.Port == 0 {
		port, err := strconv.Atoi(v.GetString("port"))
		if err != nil {
			return Config{}, errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = v.GetString("database_url")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = v.GetString("database_type")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = v.GetString("jwt_secret")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = v.GetString("ip_hash_salt")
	}
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	cfg.Env = v.GetString("app_env")
	cfg.MetricsEnabled = v.GetBool("metrics_enabled")
	cfg.PreserveOriginalWeight = v.GetBool("preserve_original_weight")
	cfg.TelegramToken = v.GetString("telegram_token")
	cfg.TelegramChatID = v.GetInt64("telegram_chat_id")

	return cfg, nil
}
