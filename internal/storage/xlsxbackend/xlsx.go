package xlsxbackend

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FranksOps/prospect/internal/storage"
)

// ensure xlsxBackend implements storage.Backend
var _ storage.Backend = (*xlsxBackend)(nil)

// Sheet names of the exported workbook.
const (
	SummarySheet = "Company Summary"
	DetailSheet  = "Detailed Information"
)

var summaryHeaders = []string{"Company", "Website", "LinkedIn", "Email", "Phone", "Location"}

var detailHeaders = []string{"Company", "Website", "LinkedIn", "Email", "Phone", "Location", "All Emails", "All Phones", "Summary"}

// xlsxBackend buffers companies in memory and writes the workbook once on
// Close. Spreadsheets are export artifacts, not databases, so there is no
// point rewriting the file on every Save.
type xlsxBackend struct {
	mu        sync.Mutex
	path      string
	companies []*storage.Company
	closed    bool
}

// New creates an XLSX-backed storage.Backend writing to filePath on Close.
func New(filePath string) (storage.Backend, error) {
	if filePath == "" {
		return nil, fmt.Errorf("xlsx path cannot be empty")
	}
	return &xlsxBackend{path: filePath}, nil
}

func (b *xlsxBackend) Save(ctx context.Context, company *storage.Company) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("xlsx backend already closed")
	}

	clone := *company
	b.companies = append(b.companies, &clone)
	return nil
}

func (b *xlsxBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Company, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var allFiltered []*storage.Company
	for _, c := range b.companies {
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

	if filter.Offset > 0 {
		if filter.Offset >= len(allFiltered) {
			return []*storage.Company{}, nil
		}
		allFiltered = allFiltered[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(allFiltered) {
		allFiltered = allFiltered[:filter.Limit]
	}

	return allFiltered, nil
}

// Close writes the buffered companies to the workbook file.
func (b *xlsxBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	f, err := buildWorkbook(b.companies)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(b.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteWorkbook renders companies as a two-sheet workbook to w. The web
// export handler streams through this without touching the filesystem.
func WriteWorkbook(w io.Writer, companies []*storage.Company) error {
	f, err := buildWorkbook(companies)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(companies []*storage.Company) (*excelize.File, error) {
	f := excelize.NewFile()

	// The default sheet becomes the summary, detail is added after it.
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(DetailSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create detail sheet: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, toAnyRow(summaryHeaders)); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeRow(f, DetailSheet, 1, toAnyRow(detailHeaders)); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, c := range companies {
		row := i + 2 // 1-based, after the header

		summary := []any{c.Name, c.Website, c.LinkedIn, c.Email, c.Phone, c.Location}
		if err := writeRow(f, SummarySheet, row, summary); err != nil {
			_ = f.Close()
			return nil, err
		}

		detail := []any{
			c.Name,
			c.Website,
			c.LinkedIn,
			c.Email,
			c.Phone,
			c.Location,
			strings.Join(c.AllEmails, ", "),
			strings.Join(c.AllPhones, ", "),
			c.Summary,
		}
		if err := writeRow(f, DetailSheet, row, detail); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toAnyRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// DefaultFilename names downloaded workbooks with the export date, matching
// what the UI offers.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", now.Format("2006-01-02"))
}
