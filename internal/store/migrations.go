package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'not_started'
		CHECK(status IN ('not_started', 'in_progress', 'completed')),
	start_date      DATETIME NOT NULL,
	end_date        DATETIME NOT NULL,
	completion_rate INTEGER NOT NULL DEFAULT 0 CHECK(completion_rate BETWEEN 0 AND 100),
	owner_id        TEXT NOT NULL,
	assignee_id     TEXT,
	team_id         TEXT,
	date_checked_at DATETIME,
	deleted         INTEGER NOT NULL DEFAULT 0 CHECK(deleted IN (0, 1)),
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'not_started'
		CHECK(status IN ('not_started', 'in_progress', 'completed')),
	start_date      DATETIME NOT NULL,
	end_date        DATETIME NOT NULL,
	assignee_id     TEXT,
	creator_id      TEXT NOT NULL,
	team_id         TEXT,
	project_id      TEXT REFERENCES projects(id) ON DELETE SET NULL,
	date_checked_at DATETIME,
	deleted         INTEGER NOT NULL DEFAULT 0 CHECK(deleted IN (0, 1)),
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	scheduled_at DATETIME,
	offset_type  TEXT NOT NULL DEFAULT ''
		CHECK(offset_type IN ('', 'before_start', 'before_end')),
	amount       INTEGER NOT NULL DEFAULT 0,
	unit         TEXT NOT NULL DEFAULT ''
		CHECK(unit IN ('', 'minute', 'hour', 'day')),
	sent         INTEGER NOT NULL DEFAULT 0 CHECK(sent IN (0, 1)),
	sent_at      DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	check_type TEXT NOT NULL DEFAULT '',
	task_id    TEXT,
	project_id TEXT,
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	deleted    INTEGER NOT NULL DEFAULT 0 CHECK(deleted IN (0, 1)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_prefs (
	user_id    TEXT PRIMARY KEY,
	prefs      TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS team_members (
	team_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	PRIMARY KEY (team_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);
CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_reminders_task_id ON reminders(task_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_end_date ON tasks(end_date);
CREATE INDEX IF NOT EXISTS idx_projects_end_date ON projects(end_date);
CREATE INDEX IF NOT EXISTS idx_reminders_sent ON reminders(sent);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
