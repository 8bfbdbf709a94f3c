package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"webos/pkg/appschema"
)

// SQLiteStore implements Store on SQLite. With the default ":memory:" DSN
// the catalog lives only as long as the process.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and creates the apps table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS apps (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			icon        TEXT NOT NULL,
			schema      TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating apps table: %w", err)
	}
	return nil
}

// Add inserts an application, replacing any with the same id.
func (s *SQLiteStore) Add(ctx context.Context, app App) error {
	schema, err := json.Marshal(app.Schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO apps (id, title, description, icon, schema, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, app.ID, app.Title, app.Description, app.Icon, string(schema), app.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting app %s: %w", app.ID, err)
	}
	return nil
}

// Get returns the application with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (App, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, icon, schema, created_at
		FROM apps WHERE id = ?
	`, id)
	app, err := scanApp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return App{}, ErrNotFound
	}
	return app, err
}

// List returns all applications in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]App, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, icon, schema, created_at
		FROM apps ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}
	defer rows.Close()

	var apps []App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Delete removes an application.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting app %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApp(row scanner) (App, error) {
	var (
		app       App
		schemaRaw string
		created   string
	)
	if err := row.Scan(&app.ID, &app.Title, &app.Description, &app.Icon, &schemaRaw, &created); err != nil {
		return App{}, err
	}
	var schema appschema.AppSchema
	if err := json.Unmarshal([]byte(schemaRaw), &schema); err != nil {
		return App{}, fmt.Errorf("decoding schema of %s: %w", app.ID, err)
	}
	app.Schema = &schema
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return App{}, fmt.Errorf("decoding created_at of %s: %w", app.ID, err)
	}
	app.CreatedAt = t
	return app, nil
}
