package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
)

// Table is a parsed CSV file.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV parses the CSV file at path. The first record is the header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.New(apperr.CodeCSVInvalid, "specified CSV file '%s' does not exist", path)
		}
		return nil, apperr.Wrap(err, apperr.CodeCSVInvalid, "failed to open '%s'", path)
	}
	defer f.Close()
	return parseCSV(f, path)
}

func parseCSV(r io.Reader, name string) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeCSVInvalid, "failed to parse '%s'", name)
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.CodeCSVInvalid, "'%s' has no header row", name)
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// Mapping pairs a CSV column with the contact field it fills. Field is nil for
// columns that are skipped.
type Mapping struct {
	Header string
	Field  *types.Field
}

// MapFields matches headers to fields by name.
func MapFields(header []string, fields []types.Field) []Mapping {
	byName := make(map[string]*types.Field, len(fields))
	for i := range fields {
		if _, ok := byName[fields[i].Name]; !ok {
			byName[fields[i].Name] = &fields[i]
		}
	}
	mappings := make([]Mapping, len(header))
	for i, h := range header {
		mappings[i] = Mapping{Header: h, Field: byName[h]}
	}
	return mappings
}

// FieldMappings converts mappings to the import endpoint's field_mappings:
// one field id per column, nil for skipped columns.
func FieldMappings(mappings []Mapping) []*string {
	out := make([]*string, len(mappings))
	for i, m := range mappings {
		if m.Field != nil {
			id := m.Field.ID
			out[i] = &id
		}
	}
	return out
}

// Chunk returns the slices of rows to upload as separate files.
//
// skip rows are dropped first. crop limits how many of the remaining rows are
// used (0 means all) and split divides them into that many files of
// ceil(crop/split) rows each; trailing files may be shorter or empty.
func Chunk(rows [][]string, crop, split, skip int) ([][][]string, error) {
	if crop < 0 || split < 0 || skip < 0 {
		return nil, apperr.New(apperr.CodeCSVInvalid, "crop, split and skip must not be negative")
	}
	if split == 0 {
		split = 1
	}
	if skip > len(rows) {
		skip = len(rows)
	}
	available := len(rows) - skip
	if crop == 0 || crop > available {
		crop = available
	}
	perFile := (crop + split - 1) / split
	end := skip + crop

	chunks := make([][][]string, split)
	for i := range chunks {
		lo := min(skip+perFile*i, end)
		hi := min(skip+perFile*(i+1), end)
		chunks[i] = rows[lo:hi]
	}
	return chunks, nil
}

// WriteCSV writes header and rows to dir/name.
func WriteCSV(dir, name string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
