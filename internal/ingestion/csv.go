// Package ingestion decodes the tabular input stream into typed records.
// Decoding failures are local to the offending row; the reader keeps going.
package ingestion

import (
	"PayLedger/internal/event"
	"PayLedger/internal/ledger"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RowError is the row-decode-failure rejection. Line is 1-based and counts
// the header row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csv row %d parsing failure: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Reader decodes one input row per Read call. Columns are addressed by
// header name, values are trimmed of surrounding whitespace.
type Reader struct {
	csv  *csv.Reader
	cols map[string]int
	line int
}

// NewReader wraps r and consumes the header row. An input without the
// required type/client/tx columns is unusable as a whole and fails here
// rather than per row.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "client", "tx"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing %q column", required)
		}
	}

	return &Reader{csv: cr, cols: cols, line: 1}, nil
}

// Read returns the next decoded record. It returns io.EOF once the input is
// exhausted and a *RowError for rows that fail to decode.
func (r *Reader) Read() (event.Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return event.Record{}, io.EOF
		}
		r.line++
		return event.Record{}, &RowError{Line: r.line, Err: err}
	}
	r.line++

	rec, err := r.decode(row)
	if err != nil {
		return event.Record{}, &RowError{Line: r.line, Err: err}
	}
	return rec, nil
}

func (r *Reader) decode(row []string) (event.Record, error) {
	typ, ok := event.ParseRecordType(r.field(row, "type"))
	if !ok {
		return event.Record{}, fmt.Errorf("unknown transaction type %q", r.field(row, "type"))
	}

	client, err := strconv.ParseUint(r.field(row, "client"), 10, 16)
	if err != nil {
		return event.Record{}, fmt.Errorf("parse client id: %w", err)
	}

	tx, err := strconv.ParseUint(r.field(row, "tx"), 10, 32)
	if err != nil {
		return event.Record{}, fmt.Errorf("parse transaction id: %w", err)
	}

	rec := event.Record{
		Type:   typ,
		Client: ledger.ClientID(client),
		Tx:     ledger.TxID(tx),
	}

	// The amount column is optional on dispute-family rows and may be
	// absent entirely. An unparseable value is treated as absent; the
	// engine then rejects deposits and withdrawals that lack it.
	if raw := r.field(row, "amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err == nil {
			if amount.IsNegative() {
				return event.Record{}, fmt.Errorf("amount %s must not be negative", amount)
			}
			rec.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}

	return rec, nil
}

func (r *Reader) field(row []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
