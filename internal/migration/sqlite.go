package migration

import (
	"strings"

	"gorm.io/gorm"
)

// sqliteSchema mirrors sql/000001_init.up.sql with types the sqlite drivers
// map back to Go values. Local development and tests run on it.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		email_verified BOOLEAN NOT NULL DEFAULT 0,
		image TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		subdomain TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		address TEXT,
		description TEXT,
		logo_url TEXT,
		payment_api_key TEXT,
		payment_webhook_secret TEXT,
		archived_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS organization_members (
		id INTEGER PRIMARY KEY,
		organization_id INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (organization_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS programs (
		id INTEGER PRIMARY KEY,
		organization_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		price INTEGER NOT NULL CHECK (price > 0),
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		capacity INTEGER,
		published BOOLEAN NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',
		archived_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS member_records (
		id INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		birth_date DATETIME NOT NULL,
		gender TEXT,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		country TEXT NOT NULL,
		relationship TEXT NOT NULL DEFAULT 'OTHER',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id INTEGER PRIMARY KEY,
		program_id INTEGER NOT NULL,
		member_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'CONFIRMED',
		payment_status TEXT NOT NULL DEFAULT 'NONE',
		invoice_status TEXT,
		invoice_handle TEXT UNIQUE,
		signed_up_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (program_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY,
		organization_id INTEGER NOT NULL,
		enrollment_id INTEGER NOT NULL,
		handle TEXT NOT NULL UNIQUE,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'DKK',
		status TEXT NOT NULL DEFAULT 'PENDING',
		session_id TEXT,
		charge_id TEXT,
		invoice_handle TEXT,
		transaction_id TEXT,
		direct_settle BOOLEAN NOT NULL DEFAULT 1,
		accept_url TEXT,
		cancel_url TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
		id INTEGER PRIMARY KEY,
		webhook_id TEXT NOT NULL UNIQUE,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		organization_id INTEGER,
		invoice_handle TEXT,
		payload TEXT NOT NULL,
		processed_at DATETIME,
		processing_error TEXT,
		received_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// ApplySQLite creates the schema on a sqlite connection.
func ApplySQLite(conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.Exec(strings.TrimSpace(stmt)).Error; err != nil {
			return err
		}
	}
	return nil
}
