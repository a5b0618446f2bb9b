package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"tracker/internal/config"
	"tracker/internal/store"

	"github.com/rs/zerolog"
)

// Repository is the SQL implementation of store.Persistence. Queries are
// written with "?" placeholders and rebound for postgres.
type Repository struct {
	db       *sql.DB
	postgres bool
	logger   zerolog.Logger
}

var _ store.Persistence = (*Repository)(nil)

func NewRepository(sqlDB *sql.DB, cfg *config.Config, logger zerolog.Logger) *Repository {
	return New(sqlDB, cfg.DBDriver, logger)
}

func New(sqlDB *sql.DB, driver string, logger zerolog.Logger) *Repository {
	return &Repository{
		db:       sqlDB,
		postgres: driver == config.DriverPostgres,
		logger:   logger.With().Str("component", "repository").Logger(),
	}
}

// updatable lists the columns UpdateColumns may write per table.
var updatable = map[store.Table]map[store.Column]bool{
	store.TablePlayer: {
		store.ColPUUID:         true,
		store.ColExternalID:    true,
		store.ColSummonerID:    true,
		store.ColName:          true,
		store.ColTag:           true,
		store.ColLinkedAccount: true,
		store.ColTeam:          true,
		store.ColUpdated:       true,
		store.ColPlayed:        true,
	},
	store.TableTeam: {
		store.ColTeamName:         true,
		store.ColTeamAbbreviation: true,
		store.ColTeamLeague:       true,
	},
	store.TableLinkedAccount: {
		"discord_id": true,
		"name":       true,
	},
}

func (r *Repository) UpdateColumns(ctx context.Context, table store.Table, id int64, cols store.Columns) error {
	allowed, ok := updatable[table]
	if !ok {
		return fmt.Errorf("%w: table %q", store.ErrUnknownColumn, table)
	}
	if len(cols) == 0 {
		return nil
	}

	names := make([]string, 0, len(cols))
	for col := range cols {
		if !allowed[col] {
			return fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, table, col)
		}
		names = append(names, string(col))
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = name + " = ?"
		args = append(args, cols[store.Column(name)])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		r.logger.Error().Err(err).Str("table", string(table)).Int64("id", id).Msg("failed to update columns")
		return fmt.Errorf("failed to update %s %d: %w", table, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", store.ErrNotFound, table, id)
	}

	r.logger.Debug().
		Str("table", string(table)).
		Int64("id", id).
		Strs("columns", names).
		Msg("columns updated")
	return nil
}

func (r *Repository) LinkedAccountByID(ctx context.Context, id int64) (*store.LinkedAccountRow, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT id, discord_id, name FROM linked_account WHERE id = ?"), id)

	var acc store.LinkedAccountRow
	err := row.Scan(&acc.ID, &acc.DiscordID, &acc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get linked account %d: %w", id, err)
	}
	return &acc, nil
}

func (r *Repository) UpsertLinkedAccount(ctx context.Context, acc store.LinkedAccountRow) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.rebind(`
		INSERT INTO linked_account (discord_id, name) VALUES (?, ?)
		ON CONFLICT (discord_id) DO UPDATE SET name = excluded.name
		RETURNING id`), acc.DiscordID, acc.Name).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("discord_id", acc.DiscordID).Msg("failed to upsert linked account")
		return 0, fmt.Errorf("failed to upsert linked account: %w", err)
	}
	return id, nil
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (r *Repository) rebind(query string) string {
	if !r.postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func optString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func optInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
