package database

import (
	"database/sql"
	"embed"
	"fmt"
	"tracker/internal/config"
	"tracker/internal/constants"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	return Open(cfg.DBDriver, cfg.DBDSN, logger)
}

// Open connects with the given driver ("sqlite3" or "pgx") and migrates the
// schema to the latest version.
func Open(driver, dsn string, logger zerolog.Logger) (*sql.DB, error) {
	logger.Info().Str("driver", driver).Msg("connecting to database")

	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == config.DriverSQLite {
		// one connection keeps ":memory:" databases alive and shared
		db.SetMaxOpenConns(1)
		if err := optimizeSQLite(db, logger); err != nil {
			logger.Error().Err(err).Msg("failed to optimize SQLite")
			return nil, fmt.Errorf("failed to optimize SQLite: %w", err)
		}
	} else {
		db.SetMaxOpenConns(constants.DBMaxOpenConns)
		db.SetMaxIdleConns(constants.DBMaxIdleConns)
		db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
		db.SetConnMaxIdleTime(constants.DBMaxIdleTime)
	}

	if err := runMigrations(db, driver, logger); err != nil {
		logger.Error().Err(err).Msg("failed to run migrations")
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("database connection established")
	return db, nil
}

func runMigrations(db *sql.DB, driver string, logger zerolog.Logger) error {
	dialect, dir := "sqlite3", "migrations/sqlite3"
	if driver == config.DriverPostgres {
		dialect, dir = "postgres", "migrations/postgres"
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Str("dialect", dialect).Msg("migrations completed successfully")
	return nil
}

// sqlitePragmas are set once after open; sqlite runs on a single connection.
var sqlitePragmas = []string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"cache_size = -64000",
	"busy_timeout = 5000",
	"foreign_keys = ON",
	"temp_store = MEMORY",
}

func optimizeSQLite(sqlDB *sql.DB, logger zerolog.Logger) error {
	for _, pragma := range sqlitePragmas {
		if _, err := sqlDB.Exec("PRAGMA " + pragma); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma, err)
		}
	}
	logger.Debug().Strs("pragmas", sqlitePragmas).Msg("sqlite pragmas set")
	return nil
}
