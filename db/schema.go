// ABOUTME: Database schema definitions
// ABOUTME: Creates pipeline, customer, interaction, payment and snapshot tables in SQLite
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'inactive')),
	satisfaction_score INTEGER,
	type TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);

CREATE TABLE IF NOT EXISTS opportunities (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	value REAL NOT NULL DEFAULT 0 CHECK(value >= 0),
	stage TEXT NOT NULL,
	probability INTEGER NOT NULL DEFAULT 0,
	customer_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	last_activity_at DATETIME,
	next_action_at DATETIME,
	is_archived INTEGER NOT NULL DEFAULT 0,
	archived_at DATETIME,
	archived_reason TEXT,
	FOREIGN KEY (customer_id) REFERENCES customers(id)
);

CREATE INDEX IF NOT EXISTS idx_opportunities_stage ON opportunities(stage);
CREATE INDEX IF NOT EXISTS idx_opportunities_customer_id ON opportunities(customer_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_archived ON opportunities(is_archived);

CREATE TABLE IF NOT EXISTS stage_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	opportunity_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	moved_at DATETIME NOT NULL,
	FOREIGN KEY (opportunity_id) REFERENCES opportunities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_stage_history_opportunity ON stage_history(opportunity_id, moved_at);

CREATE TABLE IF NOT EXISTS lost_reasons (
	id TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL,
	category TEXT NOT NULL CHECK(category IN ('price', 'competitor', 'timing', 'other')),
	competitor_name TEXT,
	competitor_price REAL,
	notes TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (opportunity_id) REFERENCES opportunities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lost_reasons_opportunity ON lost_reasons(opportunity_id);

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	opportunity_id TEXT,
	customer_id TEXT,
	type TEXT NOT NULL CHECK(type IN ('call', 'email', 'meeting', 'note', 'message')),
	notes TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (opportunity_id) REFERENCES opportunities(id) ON DELETE CASCADE,
	FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_opportunity ON interactions(opportunity_id);
CREATE INDEX IF NOT EXISTS idx_interactions_customer ON interactions(customer_id);
CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at DESC);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	amount REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('on_time', 'late', 'pending')),
	due_at DATETIME,
	paid_at DATETIME,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_id);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL,
	total_score INTEGER NOT NULL,
	grade TEXT NOT NULL,
	health_score INTEGER NOT NULL,
	health_status TEXT NOT NULL,
	velocity_score INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (opportunity_id) REFERENCES opportunities(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_score_snapshots_opportunity ON score_snapshots(opportunity_id, id DESC);

CREATE TABLE IF NOT EXISTS archive_runs (
	id TEXT PRIMARY KEY,
	ran_at DATETIME NOT NULL,
	archived_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS archive_run_opportunities (
	run_id TEXT NOT NULL,
	opportunity_id TEXT NOT NULL,
	PRIMARY KEY (run_id, opportunity_id),
	FOREIGN KEY (run_id) REFERENCES archive_runs(id) ON DELETE CASCADE,
	FOREIGN KEY (opportunity_id) REFERENCES opportunities(id) ON DELETE CASCADE
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
