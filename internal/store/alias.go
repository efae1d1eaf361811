package store

import (
	"database/sql"
)

// AliasRepository maps public pose identifiers to canonical pose ids.
type AliasRepository struct {
	db *sql.DB
}

// Aliases returns the alias repository for this store.
func (s *Store) Aliases() *AliasRepository {
	return &AliasRepository{db: s.db}
}

// Set points alias at poseID, replacing any previous target. Returns
// ErrConflict if the alias clashes with a pose id.
func (r *AliasRepository) Set(alias, poseID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := setAlias(tx, alias, poseID); err != nil {
		return err
	}
	if err := checkLibrary(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func setAlias(tx execer, alias, poseID string) error {
	_, err := tx.Exec(
		`INSERT INTO pose_aliases (alias, pose_id) VALUES (?, ?)
		 ON CONFLICT(alias) DO UPDATE SET pose_id = excluded.pose_id`,
		alias, poseID,
	)
	return err
}

// All returns the complete alias table.
func (r *AliasRepository) All() (map[string]string, error) {
	return loadAliases(r.db)
}

func loadAliases(q querier) (map[string]string, error) {
	rows, err := q.Query(`SELECT alias, pose_id FROM pose_aliases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, poseID string
		if err := rows.Scan(&alias, &poseID); err != nil {
			return nil, err
		}
		aliases[alias] = poseID
	}

	return aliases, rows.Err()
}

// Delete removes an alias.
func (r *AliasRepository) Delete(alias string) error {
	result, err := r.db.Exec(`DELETE FROM pose_aliases WHERE alias = ?`, alias)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
