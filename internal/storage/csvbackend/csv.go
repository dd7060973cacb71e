package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// multiSep joins AllEmails/AllPhones into a single CSV cell.
const multiSep = "; "

// headers defines the CSV column order, one row per company.
var headers = []string{
	"id",
	"name",
	"website",
	"linkedin",
	"email",
	"phone",
	"location",
	"summary",
	"all_emails",
	"all_phones",
	"source",
	"created_at",
}

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}

	// Check if file is empty to write headers
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat csv file: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush csv header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

// record renders one company as a CSV row in header order.
func record(company *storage.Company) []string {
	return []string{
		company.ID,
		company.Name,
		company.Website,
		company.LinkedIn,
		company.Email,
		company.Phone,
		company.Location,
		company.Summary,
		strings.Join(company.AllEmails, multiSep),
		strings.Join(company.AllPhones, multiSep),
		company.Source,
		company.CreatedAt.Format(time.RFC3339Nano),
	}
}

// WriteRecords writes a complete CSV document (header plus one row per
// company) to w, for streaming exports.
func WriteRecords(w io.Writer, companies []*storage.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, c := range companies {
		if err := cw.Write(record(c)); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func (b *csvBackend) Save(ctx context.Context, company *storage.Company) error {
	row := record(company)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Ensure we're at the end of the file for appending (just in case)
	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek csv file: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv record: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv record: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Company, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Seek to the beginning of the file to read all entries
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek csv file: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Read headers
	_, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []*storage.Company{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var allFiltered []*storage.Company

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		createdAt, _ := time.Parse(time.RFC3339Nano, record[11])

		c := &storage.Company{
			ID:        record[0],
			Name:      record[1],
			Website:   record[2],
			LinkedIn:  record[3],
			Email:     record[4],
			Phone:     record[5],
			Location:  record[6],
			Summary:   record[7],
			AllEmails: splitMulti(record[8]),
			AllPhones: splitMulti(record[9]),
			Source:    record[10],
			CreatedAt: createdAt,
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

		allFiltered = append(allFiltered, c)
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

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

func splitMulti(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, multiSep)
}
