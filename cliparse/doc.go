// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL or SQLite connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - JWTSecret: HS256 secret for bearer tokens (required)
  - IPHashSalt: Secret for audit IP hashing (required)
  - Env: "dev" enables debug logging
  - MetricsEnabled: expose /metrics (default: true)
  - PreserveOriginalWeight: keep a ballot's first coefficient on re-cast (default: true)
  - TelegramToken, TelegramChatID: optional admin notifications

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	-jwt-secret   JWT secret
	-ip-salt      IP hash salt
	-c            Config file (yaml, json, toml)
	-env-file     .env file (default: .env, ignored when missing)

# Environment Variables

Flags fall back to environment variables, then to the config file:

	PORT                     → -p
	DATABASE_URL             → -d
	DATABASE_TYPE            → -t
	JWT_SECRET               → -jwt-secret
	IP_HASH_SALT             → -ip-salt
	APP_ENV
	METRICS_ENABLED
	PRESERVE_ORIGINAL_WEIGHT
	TELEGRAM_TOKEN
	TELEGRAM_CHAT_ID

Config file keys are the lower-case variable names (database_url, jwt_secret, ...).
The .env file never overrides variables that are already set.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - JWT_SECRET must be provided
  - IP_HASH_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse
