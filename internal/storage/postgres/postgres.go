package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FranksOps/prospect/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	website TEXT NOT NULL DEFAULT '',
	linkedin TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	all_emails JSONB NOT NULL DEFAULT 'null',
	all_phones JSONB NOT NULL DEFAULT 'null',
	source TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, company *storage.Company) error {
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
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = b.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Website,
		company.LinkedIn,
		company.Email,
		company.Phone,
		company.Location,
		company.Summary,
		emailsJSON,
		phonesJSON,
		company.Source,
		company.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Company, error) {
	query := `SELECT id, name, website, linkedin, email, phone, location, summary, all_emails, all_phones, source, created_at FROM companies WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Name != "" {
		query += fmt.Sprintf(` AND LOWER(name) = LOWER($%d)`, paramCount)
		args = append(args, filter.Name)
		paramCount++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, paramCount)
		args = append(args, filter.Source)
		paramCount++
	}
	if filter.HasEmail != nil {
		if *filter.HasEmail {
			query += ` AND email <> ''`
		} else {
			query += ` AND email = ''`
		}
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
		paramCount++
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var results []*storage.Company
	for rows.Next() {
		var c storage.Company
		var emailsJSON, phonesJSON []byte

		err := rows.Scan(
			&c.ID, &c.Name, &c.Website, &c.LinkedIn, &c.Email, &c.Phone,
			&c.Location, &c.Summary, &emailsJSON, &phonesJSON, &c.Source, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}

		if err := json.Unmarshal(emailsJSON, &c.AllEmails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emails: %w", err)
		}
		if err := json.Unmarshal(phonesJSON, &c.AllPhones); err != nil {
			return nil, fmt.Errorf("failed to unmarshal phones: %w", err)
		}

		results = append(results, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate company rows: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
