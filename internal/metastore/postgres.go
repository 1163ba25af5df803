package metastore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"videohub/internal/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// OpenDB opens a PostgreSQL connection pool and checks connectivity.
func OpenDB(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations applies the embedded schema migrations. It uses its own
// connection because closing the migrator closes the database handle.
func RunMigrations(databaseURL string) error {
	db, err := OpenDB(databaseURL)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// PostgresStore keeps one row per record in the videos table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: sqlx.NewDb(db, "pgx")}
}

const insertRecord = `
INSERT INTO videos (id, title, filename, path, size, mime_type, uploaded_at, original_name)
VALUES (:id, :title, :filename, :path, :size, :mime_type, :uploaded_at, :original_name)`

const selectRecords = `
SELECT id, title, filename, path, size, mime_type, uploaded_at, original_name
FROM videos
ORDER BY uploaded_at DESC NULLS LAST, seq ASC`

func (s *PostgresStore) Append(ctx context.Context, rec domain.Record) error {
	if _, err := s.db.NamedExecContext(ctx, insertRecord, rec); err != nil {
		return &domain.StorageError{Op: "insert record", Err: err}
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.Record, error) {
	recs := []domain.Record{}
	if err := s.db.SelectContext(ctx, &recs, selectRecords); err != nil {
		return nil, &domain.StorageError{Op: "list records", Err: err}
	}
	return recs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PostgresStore) Close() error { return s.db.Close() }
