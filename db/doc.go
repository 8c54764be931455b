// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and applies schema migrations.

# Connecting

Open supports PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections are capped at one so transactions serialize. Open
enables foreign keys on that connection, so a plain DSN is enough:

	file:armonia.db?_pragma=busy_timeout(5000)

# Migrations

Migrate runs the goose migrations embedded from migrations/*.sql:

	if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

The SQL is portable between both dialects.

# Tables

  - property: Residential complexes, scoped by tenant_id
  - unit: Apartments with an optional ownership coefficient
  - app_user: Residents and administrators
  - unit_member: Owner / delegate links between users and units
  - assembly: Meeting metadata and lifecycle state
  - attendance: One row per (assembly, unit)
  - vote: Motions inside an assembly
  - vote_option: Ordered option labels per vote
  - ballot: One row per (vote, unit), with the weight snapshot
  - minutes: Generated minutes documents (JSON content) and signing counters
  - minutes_signature: One row per (minutes, signer)

# Relationships

	property 1──* unit
	property 1──* assembly
	unit *──* app_user (via unit_member)
	assembly 1──* attendance
	assembly 1──* vote
	vote 1──* vote_option
	vote 1──* ballot
	assembly 1──* minutes
	minutes 1──* minutes_signature
	app_user 1──* minutes_signature

All foreign keys use ON DELETE CASCADE.

# Constraint Errors

IsUniqueViolation recognises duplicate-key errors from either driver.
*/
package db
