package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Poses table - one row per reference pose
		`CREATE TABLE IF NOT EXISTS poses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			normalization TEXT NOT NULL DEFAULT 'anchor' CHECK(normalization IN ('anchor', 'bbox')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Joint checks table - the ordered angle checks of each pose
		`CREATE TABLE IF NOT EXISTS joint_checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			point_a TEXT NOT NULL,
			vertex TEXT NOT NULL,
			point_c TEXT NOT NULL,
			target REAL NOT NULL,
			tolerance REAL NOT NULL,
			weight REAL NOT NULL DEFAULT 1,
			feedback TEXT NOT NULL DEFAULT '',
			UNIQUE(pose_id, name)
		)`,

		// Pose aliases table - public identifiers for poses
		`CREATE TABLE IF NOT EXISTS pose_aliases (
			alias TEXT PRIMARY KEY,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_joint_checks_pose_id ON joint_checks(pose_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_pose_aliases_pose_id ON pose_aliases(pose_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
