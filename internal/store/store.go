// Package store persists rendered documentation pages and resolved
// cross-references in SQLite, backing the serve command. One database
// holds any number of projects; saving a build replaces the project's
// previous rows atomically.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bridgedoc/bridgedoc/internal/model"
	"github.com/bridgedoc/bridgedoc/internal/render"
)

type Store struct {
	conn *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			version TEXT NOT NULL DEFAULT '',
			built_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL REFERENCES projects(id),
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			synthesized INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			UNIQUE(project_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_project ON pages (project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_title ON pages (title)`,

		`CREATE TABLE IF NOT EXISTS cross_refs (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL REFERENCES projects(id),
			python_path TEXT NOT NULL,
			rust_path TEXT NOT NULL,
			relation TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_python ON cross_refs (project_id, python_path)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_rust ON cross_refs (project_id, rust_path)`,
	}

	for _, q := range queries {
		if _, err := s.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// Project is one stored build.
type Project struct {
	ID      int
	Name    string
	Version string
	BuiltAt time.Time
}

// SaveBuild stores a project's pages and cross-references, replacing
// any previous build of the same project.
func (s *Store) SaveBuild(meta model.ProjectMetadata, pages []render.Page, refs []model.CrossRef) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID int64
	err = tx.QueryRow(`SELECT id FROM projects WHERE name = ?`, meta.Name).Scan(&projectID)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(`INSERT INTO projects (name, version) VALUES (?, ?)`, meta.Name, meta.Version)
		if err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		if projectID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("getting project id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("checking project: %w", err)
	default:
		if _, err := tx.Exec(`UPDATE projects SET version = ?, built_at = CURRENT_TIMESTAMP WHERE id = ?`, meta.Version, projectID); err != nil {
			return fmt.Errorf("updating project: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM pages WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clearing pages: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM cross_refs WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clearing cross refs: %w", err)
		}
	}

	for _, page := range pages {
		if _, err := tx.Exec(
			`INSERT INTO pages (project_id, path, title, synthesized, content) VALUES (?, ?, ?, ?, ?)`,
			projectID, page.Path, page.Title, page.Synthesized, page.Content,
		); err != nil {
			return fmt.Errorf("inserting page %s: %w", page.Path, err)
		}
	}
	for _, ref := range refs {
		if _, err := tx.Exec(
			`INSERT INTO cross_refs (project_id, python_path, rust_path, relation) VALUES (?, ?, ?, ?)`,
			projectID, ref.PythonPath, ref.RustPath, ref.Relation,
		); err != nil {
			return fmt.Errorf("inserting cross ref: %w", err)
		}
	}
	return tx.Commit()
}

// Projects lists stored builds, most recent first.
func (s *Store) Projects() ([]Project, error) {
	rows, err := s.conn.Query(`SELECT id, name, version, built_at FROM projects ORDER BY built_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &p.BuiltAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetPage fetches one page by project name and page path.
func (s *Store) GetPage(project, path string) (*render.Page, error) {
	var page render.Page
	err := s.conn.QueryRow(
		`SELECT p.path, p.title, p.synthesized, p.content
		 FROM pages p JOIN projects pr ON pr.id = p.project_id
		 WHERE pr.name = ? AND p.path = ?`,
		project, path,
	).Scan(&page.Path, &page.Title, &page.Synthesized, &page.Content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("page %s not found in project %s", path, project)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return &page, nil
}

// ListPages lists page paths and titles for a project.
func (s *Store) ListPages(project string) ([]render.Page, error) {
	rows, err := s.conn.Query(
		`SELECT p.path, p.title, p.synthesized
		 FROM pages p JOIN projects pr ON pr.id = p.project_id
		 WHERE pr.name = ? ORDER BY p.path`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []render.Page
	for rows.Next() {
		var page render.Page
		if err := rows.Scan(&page.Path, &page.Title, &page.Synthesized); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// SearchPages finds pages whose title or content matches the query.
func (s *Store) SearchPages(project, query string) ([]render.Page, error) {
	pattern := "%" + query + "%"
	rows, err := s.conn.Query(
		`SELECT p.path, p.title, p.synthesized
		 FROM pages p JOIN projects pr ON pr.id = p.project_id
		 WHERE pr.name = ? AND (p.title LIKE ? OR p.content LIKE ?)
		 ORDER BY p.path`,
		project, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	defer rows.Close()

	var pages []render.Page
	for rows.Next() {
		var page render.Page
		if err := rows.Scan(&page.Path, &page.Title, &page.Synthesized); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// LookupCrossRefs returns the cross-references touching an item path on
// either side of the bridge.
func (s *Store) LookupCrossRefs(project, path string) ([]model.CrossRef, error) {
	rows, err := s.conn.Query(
		`SELECT r.python_path, r.rust_path, r.relation
		 FROM cross_refs r JOIN projects pr ON pr.id = r.project_id
		 WHERE pr.name = ? AND (r.python_path = ? OR r.rust_path = ?)`,
		project, path, path,
	)
	if err != nil {
		return nil, fmt.Errorf("looking up cross refs: %w", err)
	}
	defer rows.Close()

	var refs []model.CrossRef
	for rows.Next() {
		var ref model.CrossRef
		if err := rows.Scan(&ref.PythonPath, &ref.RustPath, &ref.Relation); err != nil {
			return nil, fmt.Errorf("scanning cross ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
