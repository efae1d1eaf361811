package store

import (
	"fmt"
	"log"

	"github.com/ayusman/posecoach/internal/profile"
)

// Import saves every profile and alias in one transaction. Existing poses with the
// same id are replaced. Nothing is saved if the result would not load as a registry.
func (s *Store) Import(profiles []*profile.Profile, aliases map[string]string) error {
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range profiles {
		if err := savePose(tx, p); err != nil {
			return err
		}
	}
	for alias, poseID := range aliases {
		if err := setAlias(tx, alias, poseID); err != nil {
			return fmt.Errorf("failed to save alias %s: %w", alias, err)
		}
	}
	if err := checkLibrary(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Seed imports the built-in pose library into an empty database.
// It reports whether anything was imported.
func (s *Store) Seed() (bool, error) {
	n, err := s.Poses().Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	profiles, aliases, err := profile.Builtin()
	if err != nil {
		return false, err
	}
	if err := s.Import(profiles, aliases); err != nil {
		return false, fmt.Errorf("failed to seed pose library: %w", err)
	}

	log.Printf("Seeded pose library with %d poses", len(profiles))
	return true, nil
}

// LoadRegistry builds a registry from the stored poses and aliases.
func (s *Store) LoadRegistry() (*profile.Registry, error) {
	profiles, err := s.Poses().List()
	if err != nil {
		return nil, fmt.Errorf("failed to list poses: %w", err)
	}
	aliases, err := s.Aliases().All()
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	reg, err := profile.NewRegistry(profiles, aliases)
	if err != nil {
		return nil, fmt.Errorf("stored pose library is invalid: %w", err)
	}
	return reg, nil
}

// checkLibrary reports ErrConflict if the poses and aliases visible to q do not
// form a valid registry.
func checkLibrary(q querier) error {
	profiles, err := listPoses(q)
	if err != nil {
		return err
	}
	aliases, err := loadAliases(q)
	if err != nil {
		return err
	}

	if _, err := profile.NewRegistry(profiles, aliases); err != nil {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return nil
}
