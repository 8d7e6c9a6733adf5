package rf2

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c360/termgraph/errors"
)

// maxLineBytes bounds a single RF2 line. The longest real rows are text
// definitions of a few kilobytes; 1 MiB leaves a wide margin.
const maxLineBytes = 1 << 20

// Spec describes one RF2 record kind: its exact header columns, the row
// decoder, and an accessor for the active flag so the reader can apply the
// ActiveOnly filter generically.
type Spec[T any] struct {
	// Name identifies the record kind in error messages ("concept", ...).
	Name string
	// Columns are the exact expected header names, in order.
	Columns []string
	// Decode turns one row (already split on tabs, len == len(Columns))
	// into a record.
	Decode func(fields []string) (T, error)
	// Active reports the record's active flag.
	Active func(record T) bool
}

// RowFilter drops records after decoding. Returning false drops the record
// silently (counted as filtered, not as an error).
type RowFilter[T any] func(record T) bool

// Stats counts what happened to each line of one file.
type Stats struct {
	LinesRead                   int `json:"lines_read"`
	RecordsAccepted             int `json:"records_accepted"`
	RecordsDroppedByFilter      int `json:"records_dropped_by_filter"`
	RecordsDroppedByDecodeError int `json:"records_dropped_by_decode_error"`
}

// Reader streams one RF2 file as typed records.
//
// The header line is validated on construction: wrong column count fails
// with ErrInvalidHeader, a name mismatch with ErrUnexpectedColumn, both
// before any row is consumed. Decode errors on individual rows are
// recoverable: the row is dropped and counted, reading continues. Rows with
// the wrong number of tab-separated fields are a format error and abort.
type Reader[T any] struct {
	scanner *bufio.Scanner
	spec    Spec[T]
	config  Config
	filters []RowFilter[T]
	stats   Stats
	line    int
}

// NewReader creates a reader over r, validating the header immediately.
func NewReader[T any](r io.Reader, spec Spec[T], config Config, filters ...RowFilter[T]) (*Reader[T], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapConfiguration(err, "Reader", "NewReader", "config validation")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	reader := &Reader[T]{
		scanner: scanner,
		spec:    spec,
		config:  config,
		filters: filters,
	}
	if err := reader.validateHeader(); err != nil {
		return nil, err
	}
	return reader, nil
}

// Open creates a reader over the file at path.
func Open[T any](path string, spec Spec[T], config Config, filters ...RowFilter[T]) (*Reader[T], io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WrapConfiguration(err, "Reader", "Open", "opening "+path)
	}
	reader, err := NewReader(f, spec, config, filters...)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return reader, f, nil
}

func (r *Reader[T]) validateHeader() error {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return errors.WrapFormat(err, "Reader", "validateHeader", "reading header")
		}
		return errors.WrapFormat(
			fmt.Errorf("%w: empty %s file", errors.ErrInvalidHeader, r.spec.Name),
			"Reader", "validateHeader", "reading header")
	}
	r.line = 1

	header := strings.TrimSuffix(r.scanner.Text(), "\r")
	// UTF-8 BOM on the first cell
	header = strings.TrimPrefix(header, "\ufeff")

	found := strings.Split(header, "\t")
	expected := r.spec.Columns
	if len(found) != len(expected) {
		return errors.WrapFormat(
			fmt.Errorf("%w: %s file has %d columns, expected %d",
				errors.ErrInvalidHeader, r.spec.Name, len(found), len(expected)),
			"Reader", "validateHeader", "column count")
	}
	for i, want := range expected {
		if found[i] != want {
			return errors.WrapFormat(
				fmt.Errorf("%w: %q at position %d, expected %q",
					errors.ErrUnexpectedColumn, found[i], i, want),
				"Reader", "validateHeader", "column names")
		}
	}
	return nil
}

// Next returns the next record that decodes and passes all filters.
// io.EOF signals a clean end of file. Any other error is fatal to the read.
func (r *Reader[T]) Next() (T, error) {
	var zero T
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		// Blank lines (trailing newlines at EOF) are ignored.
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.stats.LinesRead++

		fields := strings.Split(line, "\t")
		if len(fields) != len(r.spec.Columns) {
			return zero, errors.WrapFormat(
				fmt.Errorf("%w: %s line %d has %d fields, expected %d",
					errors.ErrColumnCount, r.spec.Name, r.line, len(fields), len(r.spec.Columns)),
				"Reader", "Next", "field count")
		}

		record, err := r.spec.Decode(fields)
		if err != nil {
			// Recoverable per-row failure: drop, count, continue.
			r.stats.RecordsDroppedByDecodeError++
			continue
		}

		if r.config.ActiveOnly && !r.spec.Active(record) {
			r.stats.RecordsDroppedByFilter++
			continue
		}
		if !r.passesFilters(record) {
			r.stats.RecordsDroppedByFilter++
			continue
		}

		r.stats.RecordsAccepted++
		return record, nil
	}

	if err := r.scanner.Err(); err != nil {
		return zero, errors.WrapFormat(err, "Reader", "Next", "reading "+r.spec.Name)
	}
	return zero, io.EOF
}

func (r *Reader[T]) passesFilters(record T) bool {
	for _, filter := range r.filters {
		if !filter(record) {
			return false
		}
	}
	return true
}

// All reads every remaining record into a slice.
func (r *Reader[T]) All() ([]T, error) {
	var records []T
	for {
		record, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// Batches reads records in batches of the configured size, invoking sink
// for each full batch and once more for any remainder. Returns the total
// record count.
func (r *Reader[T]) Batches(sink func(batch []T) error) (int, error) {
	batch := make([]T, 0, r.config.BatchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		total += len(batch)
		if err := sink(batch); err != nil {
			return err
		}
		batch = make([]T, 0, r.config.BatchSize)
		return nil
	}

	for {
		record, err := r.Next()
		if err == io.EOF {
			return total, flush()
		}
		if err != nil {
			return total, err
		}
		batch = append(batch, record)
		if len(batch) >= r.config.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
}

// Stats returns the per-line accounting so far.
func (r *Reader[T]) Stats() Stats {
	return r.stats
}
