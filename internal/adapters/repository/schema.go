package repository

// Dates are stored as date-only TEXT (2006-01-02), timestamps as RFC 3339.
const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1,
	terminated_at TEXT
);

CREATE TABLE IF NOT EXISTS events (
	ref               TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	category          TEXT NOT NULL,
	category_override TEXT NOT NULL DEFAULT '',
	start_day         TEXT NOT NULL,
	due_day           TEXT NOT NULL,
	duration_minutes  INTEGER NOT NULL DEFAULT 0,
	excluded          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS commitments (
	event_ref   TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	day         TEXT NOT NULL,
	shift_block INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS weekly_patterns (
	employee_id TEXT PRIMARY KEY,
	sun INTEGER NOT NULL DEFAULT 0,
	mon INTEGER NOT NULL DEFAULT 0,
	tue INTEGER NOT NULL DEFAULT 0,
	wed INTEGER NOT NULL DEFAULT 0,
	thu INTEGER NOT NULL DEFAULT 0,
	fri INTEGER NOT NULL DEFAULT 0,
	sat INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS date_overrides (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	employee_id TEXT NOT NULL,
	from_day    TEXT NOT NULL,
	to_day      TEXT NOT NULL,
	weekday     INTEGER NOT NULL,
	available   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS time_off (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	employee_id TEXT NOT NULL,
	from_day    TEXT NOT NULL,
	to_day      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holidays (
	day TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS locked_days (
	day TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS rotations (
	weekday     INTEGER NOT NULL,
	category    TEXT NOT NULL,
	employee_id TEXT NOT NULL,
	backup_id   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (weekday, category)
);

CREATE TABLE IF NOT EXISTS rotation_exceptions (
	day         TEXT NOT NULL,
	category    TEXT NOT NULL,
	employee_id TEXT NOT NULL,
	PRIMARY KEY (day, category)
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	processed    INTEGER NOT NULL DEFAULT 0,
	scheduled    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	swaps        INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS proposals (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	event_ref      TEXT NOT NULL,
	employee_id    TEXT NOT NULL DEFAULT '',
	scheduled_at   TEXT,
	shift_block    INTEGER NOT NULL DEFAULT 0,
	swap           INTEGER NOT NULL DEFAULT 0,
	bumped_ref     TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_proposals_run ON proposals(run_id);
`
