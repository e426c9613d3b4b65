// ABOUTME: CSV lead import for the pipeline tracker
// ABOUTME: Maps header synonyms to lead fields and skips duplicates and incomplete rows
package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// ImportSource is recorded on every lead created by an import.
const ImportSource = "csv-import"

var (
	companyHeaders = []string{"companyname", "company", "name"}
	contactHeaders = []string{"contactname", "contact", "fullname"}
	revenueHeaders = []string{"revenueestimate", "revenue"}
)

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Dropped  int `json:"dropped"`
}

// ImportFile imports leads from a CSV file on disk.
func (t *Tracker) ImportFile(path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return t.ImportCSV(f)
}

// ImportCSV adds one lead per row that has both a company and an email.
// Rows naming a company already in the pipeline (or earlier in the file)
// are skipped; rows missing either field are dropped.
func (t *Tracker) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &ImportResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	doc, err := t.Load()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a malformed line is dropped like an incomplete one
			result.Dropped++
			continue
		}

		company := firstValue(record, columns, companyHeaders)
		email := firstValue(record, columns, []string{"email"})
		if company == "" || email == "" {
			result.Dropped++
			continue
		}

		_, err = t.addTo(doc, NewLead{
			Company: company,
			Contact: firstValue(record, columns, contactHeaders),
			Email:   email,
			Source:  ImportSource,
			Revenue: firstValue(record, columns, revenueHeaders),
		})
		if errors.Is(err, ErrLeadExists) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Imported++
	}

	if result.Imported > 0 {
		if err := t.save(doc); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// normalizeHeader lowercases a header and keeps only ASCII letters, so
// "Company Name" and "company_name" both become "companyname".
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// firstValue returns the first non-empty cell among the synonym columns.
func firstValue(record []string, columns map[string]int, synonyms []string) string {
	for _, name := range synonyms {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			continue
		}
		if v := strings.TrimFunc(record[idx], unicode.IsSpace); v != "" {
			return v
		}
	}
	return ""
}
