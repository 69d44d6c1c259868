// Package ledger persists iteration result rows as an append-only
// tab-separated table: Iteration, Method, Valid, one column per tracked
// parameter, then one <Param>Error column per parameter.
package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"decaylab/domain/result"
	"decaylab/internal/errors"
)

// TSVStore implements ports.ResultLedgerPort on a single file.
type TSVStore struct {
	path string
}

// NewTSVStore creates a store writing to the given path. The file and its
// header row are created on first append.
func NewTSVStore(path string) *TSVStore {
	return &TSVStore{path: path}
}

func header() []string {
	cols := []string{"Iteration", "Method", "Valid"}
	for _, p := range result.Parameters() {
		cols = append(cols, string(p))
	}
	for _, p := range result.Parameters() {
		cols = append(cols, string(p)+"Error")
	}
	return cols
}

// Append writes rows to the end of the table. I/O failures are fatal to the
// run and surface immediately.
func (s *TSVStore) Append(ctx context.Context, rows []result.Row) error {
	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.IOError(fmt.Sprintf("opening result table %s", s.path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if fresh {
		if err := w.Write(header()); err != nil {
			return errors.IOError("writing result table header", err)
		}
	}

	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Iteration),
			string(row.Method),
			strconv.FormatBool(row.Valid),
		}
		for _, p := range result.Parameters() {
			record = append(record, formatValue(row.Values[p]))
		}
		for _, p := range result.Parameters() {
			record = append(record, formatValue(row.Errors[p]))
		}
		if err := w.Write(record); err != nil {
			return errors.IOError("writing result row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.IOError("flushing result table", err)
	}
	return nil
}

// Load reads the whole table back in append order.
func (s *TSVStore) Load(ctx context.Context) ([]result.Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("opening result table %s", s.path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.IOError("reading result table", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	params := result.Parameters()
	want := 3 + 2*len(params)
	var rows []result.Row
	for i, record := range records[1:] {
		if len(record) != want {
			return nil, errors.InvalidInput(
				fmt.Sprintf("result table row %d has %d columns, want %d", i+2, len(record), want))
		}
		iter, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("result table row %d: bad iteration %q", i+2, record[0]))
		}
		valid, err := strconv.ParseBool(record[2])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("result table row %d: bad valid flag %q", i+2, record[2]))
		}

		row := result.NewRow(iter, result.Method(record[1]), valid)
		for j, p := range params {
			row.Values[p] = parseValue(record[3+j])
			row.Errors[p] = parseValue(record[3+len(params)+j])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// formatValue uses the shortest representation that round-trips float64
// exactly.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
