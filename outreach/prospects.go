// ABOUTME: Prospect list loading from JSON and CSV files
// ABOUTME: Maps known columns to Prospect fields and keeps the rest as extra fields
package outreach

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harperreed/prospect/models"
)

// LoadProspects reads a .json array of flat objects or a .csv file with a
// header row. Any other extension is a configuration error.
func LoadProspects(path string) ([]models.Prospect, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" {
		return nil, NewConfigError("load prospects", fmt.Errorf("unsupported file format: %q", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewConfigError("load prospects", err)
	}
	defer func() { _ = f.Close() }()

	var records []map[string]string
	if ext == ".json" {
		records, err = readJSONRecords(f)
	} else {
		records, err = readCSVRecords(f)
	}
	if err != nil {
		return nil, NewConfigError("parse "+path, err)
	}

	prospects := make([]models.Prospect, 0, len(records))
	for _, rec := range records {
		prospects = append(prospects, ProspectFromRecord(rec))
	}
	return prospects, nil
}

// ProspectFromRecord maps a flat key/value record onto a Prospect. Keys are
// compared lowercase; unknown keys are kept in Extra.
func ProspectFromRecord(rec map[string]string) models.Prospect {
	lower := make(map[string]string, len(rec))
	for k, v := range rec {
		lower[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	used := make(map[string]bool)
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lower[k]; ok {
				used[k] = true
				if v != "" {
					return v
				}
			}
		}
		return ""
	}

	p := models.Prospect{
		Name:     pick("name", "contact_name", "contact"),
		Email:    pick("email"),
		Company:  pick("company", "business_name"),
		Industry: pick("industry"),
		City:     pick("city", "location"),
		Phone:    pick("phone"),
	}

	for k, v := range lower {
		if used[k] || k == "" || k == "extra" {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		p.Extra[k] = v
	}
	return p
}

func readJSONRecords(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]any
	dec := json.NewDecoder(r)
	// keep numbers as written; float64 turns phone numbers into 5.55e+09
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	records := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		rec := make(map[string]string, len(obj))
		for k, v := range obj {
			if k == "extra" {
				// files written by SaveProspects nest extra fields
				if nested, ok := v.(map[string]any); ok {
					for nk, nv := range nested {
						rec[nk] = stringify(nv)
					}
				}
				continue
			}
			rec[k] = stringify(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64, bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func readCSVRecords(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = normalizeColumn(header[i])
	}

	var records []map[string]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeColumn lowercases a CSV header and maps anything outside
// [a-z_] to an underscore, so "Contact Name" becomes "contact_name".
func normalizeColumn(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// SaveProspects writes prospects as an indented JSON array.
func SaveProspects(path string, prospects []models.Prospect) error {
	data, err := json.MarshalIndent(prospects, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ValidOutputPath derives "<name>-valid.json" from a prospect file path.
func ValidOutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-valid.json"
}

// SortedExtraKeys returns a prospect's extra field names in a stable order.
func SortedExtraKeys(p models.Prospect) []string {
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
