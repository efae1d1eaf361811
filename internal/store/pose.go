package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/profile"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// PoseRepository provides CRUD operations for reference poses and their joint checks.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

// Save inserts the profile, or replaces it and all of its joint checks if the id exists.
// Returns ErrConflict, leaving the library unchanged, if the id clashes with
// another pose or alias.
func (r *PoseRepository) Save(p *profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := savePose(tx, p); err != nil {
		return err
	}
	if err := checkLibrary(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func savePose(tx execer, p *profile.Profile) error {
	now := time.Now()

	_, err := tx.Exec(
		`INSERT INTO poses (id, name, description, normalization, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			normalization = excluded.normalization,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Description, string(p.Normalization), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save pose %s: %w", p.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM joint_checks WHERE pose_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear joints of %s: %w", p.ID, err)
	}

	for i, j := range p.Joints {
		_, err := tx.Exec(
			`INSERT INTO joint_checks
			 (pose_id, position, name, point_a, vertex, point_c, target, tolerance, weight, feedback)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, j.Name, j.Points[0], j.Points[1], j.Points[2],
			j.TargetAngle, j.Tolerance, j.Weight, j.Feedback,
		)
		if err != nil {
			return fmt.Errorf("failed to save joint %s of %s: %w", j.Name, p.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a pose and its joint checks by canonical id.
func (r *PoseRepository) GetByID(id string) (*profile.Profile, error) {
	p := &profile.Profile{}
	var normalization string

	err := r.db.QueryRow(
		`SELECT id, name, description, normalization FROM poses WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &normalization)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Normalization = detector.ScaleMethod(normalization)

	joints, err := loadJoints(r.db, `WHERE pose_id = ?`, id)
	if err != nil {
		return nil, err
	}
	p.Joints = joints[id]

	return p, nil
}

// List retrieves all poses ordered by id.
func (r *PoseRepository) List() ([]*profile.Profile, error) {
	return listPoses(r.db)
}

func listPoses(q querier) ([]*profile.Profile, error) {
	rows, err := q.Query(
		`SELECT id, name, description, normalization FROM poses ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []*profile.Profile
	for rows.Next() {
		p := &profile.Profile{}
		var normalization string

		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &normalization); err != nil {
			return nil, err
		}

		p.Normalization = detector.ScaleMethod(normalization)
		poses = append(poses, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	joints, err := loadJoints(q, "")
	if err != nil {
		return nil, err
	}
	for _, p := range poses {
		p.Joints = joints[p.ID]
	}

	return poses, nil
}

// loadJoints loads joint checks grouped by pose id, in declared order.
func loadJoints(q querier, where string, args ...any) (map[string][]profile.JointCheck, error) {
	rows, err := q.Query(
		`SELECT pose_id, name, point_a, vertex, point_c, target, tolerance, weight, feedback
		 FROM joint_checks `+where+` ORDER BY pose_id, position`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]profile.JointCheck)
	for rows.Next() {
		var poseID string
		var j profile.JointCheck

		err := rows.Scan(&poseID, &j.Name, &j.Points[0], &j.Points[1], &j.Points[2],
			&j.TargetAngle, &j.Tolerance, &j.Weight, &j.Feedback)
		if err != nil {
			return nil, err
		}

		out[poseID] = append(out[poseID], j)
	}

	return out, rows.Err()
}

// Delete removes a pose, its joint checks and its aliases.
func (r *PoseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE id = ?`, id)
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

// Count returns the number of stored poses.
func (r *PoseRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM poses`).Scan(&n)
	return n, err
}
