package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bnema/addonctl/internal/addons"
)

var (
	ErrNotFound  = errors.New("profile not found")
	ErrNameTaken = errors.New("profile name already in use")
	ErrEmptyName = errors.New("profile name cannot be empty")
)

// Profile is a named, saved addon collection
type Profile struct {
	ID        string
	Name      string
	Email     string
	Addons    addons.Collection
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is a profile without its collection
type Summary struct {
	ID        string
	Name      string
	Email     string
	Count     int
	UpdatedAt time.Time
}

// DB stores profiles in a SQLite database
type DB struct {
	sql *sql.DB
}

// Open opens or creates the profiles database at path
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS profiles (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL UNIQUE,
  email       TEXT NOT NULL DEFAULT '',
  addons      TEXT NOT NULL,
  addon_count INTEGER NOT NULL DEFAULT 0,
  created_at  DATETIME NOT NULL,
  updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profiles_updated ON profiles(updated_at);
    `); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Save stores collection under name, overwriting the profile with that name
// if it exists
func (d *DB) Save(ctx context.Context, name, email string, collection addons.Collection) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	data, err := json.Marshal(persistable(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	now := time.Now().UTC()
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM profiles WHERE name = ?`, name).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		createdAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles(id, name, email, addons, addon_count, created_at, updated_at) VALUES(?,?,?,?,?,?,?)`,
			id, name, email, string(data), len(collection), createdAt, now)
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE profiles SET email = ?, addons = ?, addon_count = ?, updated_at = ? WHERE id = ?`,
			email, string(data), len(collection), now, id)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Profile{
		ID:        id,
		Name:      name,
		Email:     email,
		Addons:    collection.Clone(),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}

// List returns every profile, most recently updated first
func (d *DB) List(ctx context.Context) ([]Summary, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name, email, addon_count, updated_at FROM profiles ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Count, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns the profile with the given name or id
func (d *DB) Get(ctx context.Context, ref string) (*Profile, error) {
	var (
		p    Profile
		data string
	)
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, name, email, addons, created_at, updated_at FROM profiles WHERE name = ? OR id = ? LIMIT 1`,
		ref, ref).Scan(&p.ID, &p.Name, &p.Email, &data, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Addons); err != nil {
		return nil, fmt.Errorf("corrupt profile %s: %w", p.Name, err)
	}
	return &p, nil
}

// Rename changes the name of a profile
func (d *DB) Rename(ctx context.Context, ref, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}

	p, err := d.Get(ctx, ref)
	if err != nil {
		return err
	}

	var exists int
	if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE name = ? AND id != ?`, newName, p.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrNameTaken, newName)
	}

	_, err = d.sql.ExecContext(ctx, `UPDATE profiles SET name = ?, updated_at = ? WHERE id = ?`, newName, time.Now().UTC(), p.ID)
	return err
}

// Delete removes a profile by name or id
func (d *DB) Delete(ctx context.Context, ref string) error {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM profiles WHERE name = ? OR id = ?`, ref, ref)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return nil
}

// persistable strips transient state before storage
func persistable(c addons.Collection) addons.Collection {
	out := c.Clone()
	if out == nil {
		out = addons.Collection{}
	}
	for i := range out {
		out[i].Selected = false
		out[i].Status = addons.StatusUnchecked
		out[i].Err = ""
	}
	return out
}
