package storage

import (
	"context"
	"time"
)

// Company is one discovered lead. Every field except ID, Source and
// CreatedAt is best-effort: whichever source (search snippet, knowledge
// graph, scraped page) matched first wins, and absent data stays empty.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	LinkedIn  string    `json:"linkedin,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	AllEmails []string  `json:"all_emails,omitempty"`
	AllPhones []string  `json:"all_phones,omitempty"`
	Source    string    `json:"source"` // query that produced the record
	CreatedAt time.Time `json:"created_at"`
}

// Filter allows querying for specific companies.
type Filter struct {
	Name     string
	Source   string
	HasEmail *bool
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the interface for storing and querying company records.
type Backend interface {
	Save(ctx context.Context, company *Company) error
	Query(ctx context.Context, filter Filter) ([]*Company, error)
	Close() error
}
