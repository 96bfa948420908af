package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rolecall/rolecall/internal/model"
)

// Archive keeps a history of every posting included in a sent digest in
// a SQLite database.
type Archive struct {
	db *sql.DB
}

// ArchivedPosting is one row of digest history.
type ArchivedPosting struct {
	Identity string
	Title    string
	Company  string
	Location string
	URL      string
	Source   string
	Score    int
	SentAt   time.Time
}

// OpenArchive opens (or creates) the archive database at dbPath and
// ensures the sent_postings table exists.
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging archive db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS sent_postings (
		identity  TEXT PRIMARY KEY,
		title     TEXT NOT NULL,
		company   TEXT NOT NULL,
		location  TEXT,
		url       TEXT,
		source    TEXT,
		score     INTEGER,
		posted_at DATETIME,
		sent_at   DATETIME NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sent_postings table: %w", err)
	}

	return &Archive{db: db}, nil
}

// RecordDigest stores every posting of a sent digest. Identities already
// archived are left untouched.
func (a *Archive) RecordDigest(postings []model.Posting, sentAt time.Time) error {
	stmt := `INSERT OR IGNORE INTO sent_postings
		(identity, title, company, location, url, source, score, posted_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range postings {
		var postedAt any
		if p.PostedAt != nil {
			postedAt = p.PostedAt.UTC()
		}
		_, err := a.db.Exec(stmt,
			p.Identity, p.Title, p.Company, p.Location, p.URL, p.Source, p.Score, postedAt, sentAt.UTC())
		if err != nil {
			return fmt.Errorf("archiving posting %s: %w", p.Identity, err)
		}
	}
	return nil
}

// Recent returns the most recently sent postings, newest first.
func (a *Archive) Recent(limit int) ([]ArchivedPosting, error) {
	rows, err := a.db.Query(`SELECT identity, title, company, location, url, source, score, sent_at
		FROM sent_postings ORDER BY sent_at DESC, identity ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedPosting
	for rows.Next() {
		var p ArchivedPosting
		if err := rows.Scan(&p.Identity, &p.Title, &p.Company, &p.Location, &p.URL, &p.Source, &p.Score, &p.SentAt); err != nil {
			return nil, fmt.Errorf("scanning archive row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
