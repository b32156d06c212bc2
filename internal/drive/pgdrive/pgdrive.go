// Package pgdrive provides a PostgreSQL-backed drive index.
package pgdrive

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/nicolagi/tgdrive/internal/drive"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// Store is a PostgreSQL drive index.
type Store struct {
	db *sql.DB
}

// New connects to databaseURL and checks the connection.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate runs the embedded migrations in name order. They are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	return nil
}

const selectItems = `SELECT id, kind, name, path, size, message_id, uploaded_at FROM drive_items`

func (s *Store) Search(ctx context.Context, query string) (map[string]drive.Item, error) {
	found := make(map[string]drive.Item)
	query = strings.TrimSpace(query)
	if query == "" {
		return found, nil
	}
	rows, err := s.db.QueryContext(ctx, selectItems+`
		WHERE position(lower($1) in lower(name)) > 0
		   OR position(lower($1) in lower(path)) > 0`, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		found[it.ID] = it
	}
	return found, rows.Err()
}

func (s *Store) NewFile(ctx context.Context, folderPath, name string, messageID, size int64) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFile,
		Name:       name,
		Path:       drive.NormalizePath(folderPath),
		Size:       size,
		MessageID:  messageID,
		UploadedAt: time.Now().UTC(),
	}
	return it, s.insert(ctx, it)
}

func (s *Store) NewFolder(ctx context.Context, parentPath, name string) (drive.Item, error) {
	if err := drive.ValidateName(name); err != nil {
		return drive.Item{}, err
	}
	it := drive.Item{
		ID:         drive.NewID(),
		Kind:       drive.KindFolder,
		Name:       name,
		Path:       drive.NormalizePath(parentPath),
		UploadedAt: time.Now().UTC(),
	}
	return it, s.insert(ctx, it)
}

func (s *Store) List(ctx context.Context) ([]drive.Item, error) {
	rows, err := s.db.QueryContext(ctx, selectItems+` ORDER BY path, name`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()
	var items []drive.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	drive.SortTree(items)
	return items, nil
}

func (s *Store) insert(ctx context.Context, it drive.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if it.Path != drive.Root {
		parent, id := drive.Split(it.Path)
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM drive_items WHERE id = $1 AND kind = 'folder' AND path = $2`,
			id, parent).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("folder %s: %w", it.Path, drive.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check folder: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO drive_items (id, kind, name, path, size, message_id, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, string(it.Kind), it.Name, it.Path, it.Size, it.MessageID, it.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (drive.Item, error) {
	var it drive.Item
	var kind string
	if err := row.Scan(&it.ID, &kind, &it.Name, &it.Path, &it.Size, &it.MessageID, &it.UploadedAt); err != nil {
		return drive.Item{}, fmt.Errorf("scan row: %w", err)
	}
	it.Kind = drive.Kind(kind)
	return it, nil
}
