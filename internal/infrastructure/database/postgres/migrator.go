package postgres

import (
	stderrors "errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// database driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres/migrations"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// migrationRunner is the subset of *migrate.Migrate the Migrator drives.
type migrationRunner interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded staging schema. Each call opens its own
// migrate instance and closes it afterwards.
type Migrator struct {
	open   func() (migrationRunner, error)
	logger logging.Logger
}

// NewMigrator migrates the database described by cfg with the embedded
// scripts.
func NewMigrator(cfg config.PostgresConfig, log logging.Logger) *Migrator {
	return newMigrator(BuildDSN(cfg), migrations.FS, log)
}

func newMigrator(dbURL string, source fs.FS, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{
		open: func() (migrationRunner, error) {
			src, err := iofs.New(source, ".")
			if err != nil {
				return nil, err
			}
			return migrate.NewWithSourceInstance("iofs", src, dbURL)
		},
		logger: log.Named("migrator"),
	}
}

func (m *Migrator) with(fn func(r migrationRunner) error) error {
	r, err := m.open()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to create migrate instance")
	}
	defer func() {
		if srcErr, dbErr := r.Close(); srcErr != nil || dbErr != nil {
			m.logger.Warn("closing migrate instance", logging.Err(stderrors.Join(srcErr, dbErr)))
		}
	}()
	return fn(r)
}

// Up applies all pending migrations. Nothing to apply is not an error.
func (m *Migrator) Up() error {
	return m.with(func(r migrationRunner) error {
		if err := r.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
			return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to run migrations")
		}
		v, dirty, _ := r.Version()
		m.logger.Info("Database migrations completed", logging.Int64("version", int64(v)), logging.Bool("dirty", dirty))
		return nil
	})
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParam, "steps must be greater than 0, got %d", steps)
	}
	return m.with(func(r migrationRunner) error {
		if err := r.Steps(-steps); err != nil {
			if stderrors.Is(err, migrate.ErrNoChange) {
				return errors.New(errors.ErrCodeMigrationFailed, "no migrations to roll back")
			}
			return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to roll back")
		}
		m.logger.Info("Database migrations rolled back", logging.Int("steps", steps))
		return nil
	})
}

// Version reports the applied version; 0 when nothing has been applied.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	err = m.with(func(r migrationRunner) error {
		var verr error
		version, dirty, verr = r.Version()
		if verr != nil {
			if stderrors.Is(verr, migrate.ErrNilVersion) {
				version, dirty = 0, false
				return nil
			}
			return errors.Wrap(verr, errors.ErrCodeMigrationFailed, "failed to get migration version")
		}
		return nil
	})
	return version, dirty, err
}

// Force sets the recorded version without running scripts, to recover from
// a dirty state.
func (m *Migrator) Force(version int) error {
	return m.with(func(r migrationRunner) error {
		if err := r.Force(version); err != nil {
			return errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to force version")
		}
		m.logger.Warn("Migration version forced", logging.Int("version", version))
		return nil
	})
}

//Personal.AI order the ending
