package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVReader parses comma-separated data with a mandatory header row.
type CSVReader struct {
	// MaxRows limits how many data rows are parsed (excluding the header).
	// Zero means DefaultMaxRows.
	MaxRows int
}

// DefaultMaxRows caps the number of parsed data rows per sheet.
const DefaultMaxRows = 10000

// NewCSVReader creates a CSV reader with the default row cap.
func NewCSVReader() *CSVReader {
	return &CSVReader{MaxRows: DefaultMaxRows}
}

// Read parses the stream. Malformed rows (wrong column count) are skipped
// rather than failing the whole sheet.
func (c *CSVReader) Read(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(headers) == 0 {
		return nil, errors.New("csv header row is empty")
	}

	columns := make([]string, len(headers))
	for i, h := range headers {
		columns[i] = strings.TrimSpace(h)
	}

	maxRows := c.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	rows := make([]Row, 0)
	for len(rows) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if len(record) != len(columns) {
			// skip malformed row
			continue
		}

		row := make(Row, len(columns))
		for i, cell := range record {
			if columns[i] == "" {
				continue
			}
			row[columns[i]] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	return &Sheet{
		Columns: columns,
		Rows:    rows,
	}, nil
}
