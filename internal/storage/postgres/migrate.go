package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/partygames/mafia/internal/storage/postgres/migrations"
)

// MigrationResult reports the schema version after a migration run.
type MigrationResult struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

// Migrate applies the embedded migrations to the database at dsn. A
// positive steps moves that many migrations in the given direction; zero
// moves all the way.
//
// Precondition: direction must be "up" or "down"; steps must be >= 0.
// Postcondition: Returns the resulting schema version, or a non-nil error.
func Migrate(dsn, direction string, steps int) (MigrationResult, error) {
	if direction != "up" && direction != "down" {
		return MigrationResult{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if steps < 0 {
		return MigrationResult{}, fmt.Errorf("steps must be >= 0, got %d", steps)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return MigrationResult{}, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}

	var res MigrationResult
	if errors.Is(err, migrate.ErrNoChange) {
		res.NoChange = true
	} else if err != nil {
		return MigrationResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("reading schema version: %w", verr)
	}
	res.Version, res.Dirty = version, dirty
	return res, nil
}
