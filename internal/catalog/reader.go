package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jasonw-lab/collecter/internal/model"
)

// Catalog shape errors.
var (
	// ErrEmptyCatalog is returned when the file has no header row.
	ErrEmptyCatalog = errors.New("catalog is empty: missing header row")

	// ErrMissingColumn is returned when a required column is absent from
	// the header. The catalog contract cannot be met without it, so this
	// is fatal to the run.
	ErrMissingColumn = errors.New("catalog is missing a required column")
)

// Reader iterates the rows of a CSV product catalog.
// One Reader reads one file; it is not safe for concurrent use, which is
// fine because the pipeline is strictly sequential.
type Reader struct {
	// csv is the underlying CSV reader.
	csv *csv.Reader

	// closer closes the underlying file when reading finishes.
	closer io.Closer

	// header maps column names to their positions.
	header map[string]int
}

// Open opens a catalog file and validates its header.
// Rows with a different field count than the header are tolerated
// (short rows read as blank cells) because hand-edited catalogs are
// common and a ragged row should skip, not abort.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided catalog path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err == io.EOF {
		_ = f.Close() //nolint:errcheck // Best effort cleanup
		return nil, ErrEmptyCatalog
	}
	if err != nil {
		_ = f.Close() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	header := make(map[string]int, len(record))
	for i, name := range record {
		header[name] = i
	}

	for _, required := range []string{model.ColumnTitle, model.ColumnImageFile} {
		if _, ok := header[required]; !ok {
			_ = f.Close() //nolint:errcheck // Best effort cleanup
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	return &Reader{csv: r, closer: f, header: header}, nil
}

// Next returns the next product row, or io.EOF when the catalog is
// exhausted.
func (r *Reader) Next() (model.ProductRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		return model.ProductRow{}, err
	}

	fields := make(map[string]string, len(r.header))
	for name, idx := range r.header {
		if idx < len(record) {
			fields[name] = record[idx]
		} else {
			fields[name] = ""
		}
	}
	return model.NewProductRow(fields), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.closer.Close()
}

// ReadAll reads every row of a catalog file into memory.
// Convenient for small catalogs and tests; the pipeline itself streams
// rows via Next to keep memory flat on large inputs.
func ReadAll(path string) ([]model.ProductRow, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rows := make([]model.ProductRow, 0)
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog row: %w", err)
		}
		rows = append(rows, row)
	}
}
