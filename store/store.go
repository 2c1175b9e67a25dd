package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"redirector/rules"
)

// Store persists redirect rules in sqlite. It is the ordered-rule
// collaborator for the engine: ListActive returns each project's active
// rules most recently updated first, which is the priority order the
// resolver evaluates them in.
type Store struct {
	db *sql.DB
}

var ErrNotFound = errors.New("redirect not found")

const schema = `
CREATE TABLE IF NOT EXISTS redirects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project TEXT NOT NULL,
	redirect_type TEXT NOT NULL,
	from_url TEXT NOT NULL DEFAULT '',
	from_url_without_rest TEXT,
	to_url TEXT NOT NULL DEFAULT '',
	force_redirect INTEGER NOT NULL DEFAULT 0,
	http_status INTEGER NOT NULL DEFAULT 302,
	active INTEGER NOT NULL DEFAULT 1,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_redirects_project ON redirects(project, active, updated_at);
CREATE INDEX IF NOT EXISTS idx_redirects_from_url ON redirects(from_url);
CREATE INDEX IF NOT EXISTS idx_redirects_from_url_without_rest ON redirects(from_url_without_rest);
`

// Open opens (creating if needed) the rule database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or updates a rule. The derived from_url_without_rest column is
// recomputed here, in the same write that sets from_url; nothing else ever
// writes it, so the two cannot drift apart. UpdatedAt is set on every write,
// which also moves the rule to the front of the priority order.
func (s *Store) Put(r *rules.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}

	withoutRest := sql.NullString{}
	if v := r.FromURLWithoutRest(); v != "" {
		withoutRest = sql.NullString{String: v, Valid: true}
	}
	now := time.Now().UTC()

	if r.ID == 0 {
		res, err := s.db.Exec(
			`INSERT INTO redirects
				(project, redirect_type, from_url, from_url_without_rest, to_url, force_redirect, http_status, active, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Project, r.Type.String(), r.FromURL, withoutRest, r.ToURL, r.Force, r.HTTPStatus, r.Active, now,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		r.ID = id
	} else {
		res, err := s.db.Exec(
			`UPDATE redirects SET
				project = ?, redirect_type = ?, from_url = ?, from_url_without_rest = ?,
				to_url = ?, force_redirect = ?, http_status = ?, active = ?, updated_at = ?
				WHERE id = ?`,
			r.Project, r.Type.String(), r.FromURL, withoutRest, r.ToURL, r.Force, r.HTTPStatus, r.Active, now, r.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}

	r.UpdatedAt = now
	return nil
}

// Get returns the rule with the given id.
func (s *Store) Get(id int64) (*rules.Rule, error) {
	row := s.db.QueryRow(
		`SELECT id, project, redirect_type, from_url, to_url, force_redirect, http_status, active, updated_at
			FROM redirects WHERE id = ?`, id)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Delete removes the rule with the given id.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM redirects WHERE id = ?`, id)
	if err != nil {
		return err
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

// ListActive returns the project's active rules, most recently updated
// first. A row with an unrecognized type fails the whole listing: a
// malformed stored rule is a configuration error to surface, not a rule to
// silently skip.
func (s *Store) ListActive(project string) ([]*rules.Rule, error) {
	qrows, err := s.db.Query(
		`SELECT id, project, redirect_type, from_url, to_url, force_redirect, http_status, active, updated_at
			FROM redirects WHERE project = ? AND active = 1
			ORDER BY updated_at DESC, id DESC`, project)
	if err != nil {
		return nil, err
	}
	defer qrows.Close()

	var out []*rules.Rule
	for qrows.Next() {
		r, err := scanRule(qrows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := qrows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*rules.Rule, error) {
	var r rules.Rule
	var typeName string
	if err := row.Scan(&r.ID, &r.Project, &typeName, &r.FromURL, &r.ToURL, &r.Force, &r.HTTPStatus, &r.Active, &r.UpdatedAt); err != nil {
		return nil, err
	}
	t, err := rules.ParseType(typeName)
	if err != nil {
		return nil, fmt.Errorf("redirect %d: %w", r.ID, err)
	}
	r.Type = t
	return &r, nil
}
