// Package spreadsheet reads tabular byte streams into ordered rows of
// column-name -> raw cell value. The pipeline only depends on the Reader
// interface; concrete formats stay pluggable.
package spreadsheet

import (
	"io"
)

// Row is one data row keyed by column header.
type Row map[string]string

// Sheet is the parsed result of one tabular source: the header order is
// preserved so downstream mapping stays deterministic.
type Sheet struct {
	Columns []string
	Rows    []Row
}

// Reader parses raw tabular bytes into a Sheet.
type Reader interface {
	Read(r io.Reader) (*Sheet, error)
}
