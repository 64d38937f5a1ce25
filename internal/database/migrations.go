package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: entity tables
	{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT,
			email TEXT,
			age INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE places (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			description TEXT,
			category TEXT,
			rating REAL,
			visited_at TEXT,
			user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},

	// Migration 2: indexes for relation joins and common filters
	{
		`CREATE INDEX idx_places_user ON places(user_id)`,
		`CREATE INDEX idx_places_category ON places(category)`,
		`CREATE UNIQUE INDEX idx_users_email ON users(email)`,
	},
}
