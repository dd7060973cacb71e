package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/FranksOps/prospect/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	website TEXT,
	linkedin TEXT,
	email TEXT,
	phone TEXT,
	location TEXT,
	summary TEXT,
	all_emails TEXT NOT NULL,
	all_phones TEXT NOT NULL,
	source TEXT,
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, company *storage.Company) error {
	emailsJSON, err := json.Marshal(company.AllEmails)
	if err != nil {
		return fmt.Errorf("failed to marshal emails: %w", err)
	}
	phonesJSON, err := json.Marshal(company.AllPhones)
	if err != nil {
		return fmt.Errorf("failed to marshal phones: %w", err)
	}

	query := `
	INSERT INTO companies (
		id, name, website, linkedin, email, phone, location, summary, all_emails, all_phones, source, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Website,
		company.LinkedIn,
		company.Email,
		company.Phone,
		company.Location,
		company.Summary,
		string(emailsJSON),
		string(phonesJSON),
		company.Source,
		company.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Company, error) {
	query := `SELECT id, name, website, linkedin, email, phone, location, summary, all_emails, all_phones, source, created_at FROM companies WHERE 1=1`
	args := []any{}

	if filter.Name != "" {
		query += ` AND LOWER(name) = LOWER(?)`
		args = append(args, filter.Name)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.HasEmail != nil {
		if *filter.HasEmail {
			query += ` AND email <> ''`
		} else {
			query += ` AND email = ''`
		}
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var results []*storage.Company
	for rows.Next() {
		var c storage.Company
		var emailsJSON, phonesJSON string

		err := rows.Scan(
			&c.ID, &c.Name, &c.Website, &c.LinkedIn, &c.Email, &c.Phone,
			&c.Location, &c.Summary, &emailsJSON, &phonesJSON, &c.Source, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}

		if err := json.Unmarshal([]byte(emailsJSON), &c.AllEmails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emails: %w", err)
		}
		if err := json.Unmarshal([]byte(phonesJSON), &c.AllPhones); err != nil {
			return nil, fmt.Errorf("failed to unmarshal phones: %w", err)
		}

		results = append(results, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company rows: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
