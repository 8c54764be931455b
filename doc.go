// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Armonía API server.

Armonía runs owners' assemblies for residential complexes: attendance
registration with coefficient-weighted quorum, live votes whose tallies
stream over WebSocket, and meeting minutes exportable as a spreadsheet.
Every record belongs to a tenant (one complex) and every query is scoped
by the tenant carried in the caller's bearer token.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:armonia.db JWT_SECRET=... IP_HASH_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -jwt-secret ... -ip-salt ...

A .env file in the working directory is loaded when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite DSN or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): HS256 secret for bearer tokens
  - IP_HASH_SALT (-ip-salt): Secret for audit IP hashing

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - APP_ENV: dev enables debug logging
  - METRICS_ENABLED: expose /metrics (default: true)
  - PRESERVE_ORIGINAL_WEIGHT: re-cast ballots keep their first coefficient (default: true)
  - TELEGRAM_TOKEN, TELEGRAM_CHAT_ID: admin notifications

# Architecture

  - handlers: HTTP request handlers (directory, assemblies, voting, minutes)
  - router: Route definitions using Go 1.22+ routing
  - realtime: WebSocket hub and gateway
  - service: Business rules and transactions
  - tally: Quorum and vote result calculation
  - store: SQL repositories
  - db: Connection and goose migrations
  - middleware: CORS, logging, metrics, authentication, JSON helpers
  - models: Domain, request and response types
  - auth: Bearer tokens, IDs, IP hashing
  - export: XLSX minutes rendering
  - notify: Telegram notifications
  - metrics: Prometheus collectors
  - logger: slog setup
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
