package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/FranksOps/prospect/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// New creates a new NDJSON-backed storage.Backend, one company per line.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ndjson file: %w", err)
	}

	return &jsonBackend{
		file: f,
	}, nil
}

// WriteRecords writes companies to w as one indented JSON array, for
// streaming exports. Save keeps appending NDJSON; downloads get a document
// standard tooling opens directly.
func WriteRecords(w io.Writer, companies []*storage.Company) error {
	if companies == nil {
		companies = []*storage.Company{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(companies); err != nil {
		return fmt.Errorf("failed to encode companies: %w", err)
	}
	return nil
}

func (b *jsonBackend) Save(ctx context.Context, company *storage.Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("failed to marshal company: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err = b.file.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("failed to append ndjson line: %w", err)
	}

	return nil
}

func (b *jsonBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Company, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Seek to the beginning of the file to read all entries
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek ndjson file: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)

	// In a real DB, offset/limit and ordering is handled by the engine.
	// For NDJSON, we read everything, filter in memory, and then slice/reverse.
	var allFiltered []*storage.Company

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c storage.Company
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("failed to decode ndjson line: %w", err)
		}

		// Apply filters
		if filter.Name != "" && !strings.EqualFold(c.Name, filter.Name) {
			continue
		}
		if filter.Source != "" && c.Source != filter.Source {
			continue
		}
		if filter.HasEmail != nil && (c.Email != "") != *filter.HasEmail {
			continue
		}
		if filter.Since != nil && c.CreatedAt.Before(*filter.Since) {
			continue
		}

		allFiltered = append(allFiltered, &c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ndjson file: %w", err)
	}

	// Order by created_at DESC (reverse the slice)
	for i, j := 0, len(allFiltered)-1; i < j; i, j = i+1, j-1 {
		allFiltered[i], allFiltered[j] = allFiltered[j], allFiltered[i]
	}

	// Apply Offset
	if filter.Offset > 0 {
		if filter.Offset >= len(allFiltered) {
			return []*storage.Company{}, nil
		}
		allFiltered = allFiltered[filter.Offset:]
	}

	// Apply Limit
	if filter.Limit > 0 && filter.Limit < len(allFiltered) {
		allFiltered = allFiltered[:filter.Limit]
	}

	return allFiltered, nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
