// Package pgstore provides a PostgreSQL-backed implementation of
// storage.Store, using pgvector for similarity search over tuning and
// embedding columns.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver, used only to run migrations
	"github.com/pgvector/pgvector-go"

	"github.com/Pharbi/arachnid/storage"
	"github.com/Pharbi/arachnid/types"
)

//go:embed migrations
var migrationsFS embed.FS

// rowScanner is satisfied by both pgx.Row and pgx.Rows, letting scan
// helpers serve GetX and ListX alike.
type rowScanner interface {
	Scan(dest ...any) error
}

// Store is a PostgreSQL implementation of storage.Store backed by a pgx
// connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time check that Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// New connects to databaseURL, applies pending migrations, and returns a
// ready Store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.migrate(databaseURL); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// FromPool wraps an existing pool without running migrations, useful for
// tests that share a pool across stores.
func FromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// migrate applies pending schema migrations using database/sql over the
// pgx stdlib driver. golang-migrate operates on *sql.DB, not the pgxpool
// used for regular queries, so it gets its own short-lived connection.
func (s *Store) migrate(databaseURL string) error {
	m, db, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("pgstore: apply migrations: %w", err)
	}
	return nil
}

func newMigrator(databaseURL string) (*migrate.Migrate, *sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgstore: open migration connection: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("pgstore: migration source: %w", err)
	}
	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("pgstore: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("pgstore: migrate instance: %w", err)
	}
	return m, db, nil
}

// MigrationStatus reports the currently applied migration version and
// whether the last migration left the schema dirty, without applying
// anything. Used by coordinatord's "migrate --status" subcommand.
func MigrationStatus(databaseURL string) (version uint, dirty bool, err error) {
	m, db, err := newMigrator(databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer db.Close()
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Rollback reverts the most recently applied migration. Used by
// coordinatord's "migrate --rollback" subcommand.
func Rollback(databaseURL string) error {
	m, db, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("pgstore: rollback migration: %w", err)
	}
	return nil
}

func toVector(v []float32) pgvector.Vector { return pgvector.NewVector(v) }

// Webs

func (s *Store) CreateWeb(ctx context.Context, web types.Web) error {
	cfg, err := json.Marshal(web.Config)
	if err != nil {
		return fmt.Errorf("pgstore: marshal config: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO webs (id, task, state, root_agent_id, config)
		VALUES ($1, $2, $3, $4, $5)
	`, web.ID, web.Task, string(web.State), web.RootAgentID, cfg)
	return err
}

func (s *Store) GetWeb(ctx context.Context, id types.WebID) (types.Web, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, task, state, root_agent_id, config FROM webs WHERE id = $1
	`, id)
	w, err := scanWeb(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Web{}, storage.ErrNotFound
	}
	return w, err
}

func (s *Store) UpdateWeb(ctx context.Context, web types.Web) error {
	cfg, err := json.Marshal(web.Config)
	if err != nil {
		return fmt.Errorf("pgstore: marshal config: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE webs SET task = $2, state = $3, root_agent_id = $4, config = $5, updated_at = NOW()
		WHERE id = $1
	`, web.ID, web.Task, string(web.State), web.RootAgentID, cfg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListWebs(ctx context.Context, state *types.WebState) ([]types.Web, error) {
	var rows pgx.Rows
	var err error
	if state != nil {
		rows, err = s.pool.Query(ctx, `
			SELECT id, task, state, root_agent_id, config FROM webs
			WHERE state = $1 ORDER BY created_at DESC
		`, string(*state))
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, task, state, root_agent_id, config FROM webs ORDER BY created_at DESC
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.Web, 0)
	for rows.Next() {
		w, err := scanWeb(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWeb(row rowScanner) (types.Web, error) {
	var w types.Web
	var state string
	var cfg []byte
	if err := row.Scan(&w.ID, &w.Task, &state, &w.RootAgentID, &cfg); err != nil {
		return types.Web{}, err
	}
	w.State = types.WebState(state)
	if err := json.Unmarshal(cfg, &w.Config); err != nil {
		return types.Web{}, fmt.Errorf("pgstore: unmarshal config: %w", err)
	}
	return w, nil
}
