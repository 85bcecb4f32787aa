package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/spreadsheet"
)

func sheetOf(columns []string, rows ...spreadsheet.Row) *spreadsheet.Sheet {
	return &spreadsheet.Sheet{Columns: columns, Rows: rows}
}

func TestInferSchemaTypes(t *testing.T) {
	sheet := sheetOf(
		[]string{"Name", "Salary", "Rate", "Active", "StartDate", "Joined", "Shift", "Count"},
		spreadsheet.Row{"Name": "Avery", "Salary": "$55,000", "Rate": "7.5%", "Active": "yes", "StartDate": "2026-03-10", "Joined": "2026-03-10 09:00:00", "Shift": "09:00", "Count": "3"},
		spreadsheet.Row{"Name": "Sam", "Salary": "$61,250", "Rate": "8%", "Active": "no", "StartDate": "2026-04-01", "Joined": "2026-04-01 10:30:00", "Shift": "17:30", "Count": "12"},
	)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	require.Len(t, columns, 8)

	byName := map[string]InferredColumn{}
	for _, c := range columns {
		byName[c.ColumnName] = c
	}
	assert.Equal(t, domain.FieldTypeText, byName["Name"].FieldType)
	assert.Equal(t, domain.FieldTypeCurrency, byName["Salary"].FieldType)
	assert.Equal(t, domain.FieldTypePercentage, byName["Rate"].FieldType)
	assert.Equal(t, domain.FieldTypeBoolean, byName["Active"].FieldType)
	assert.Equal(t, domain.FieldTypeDate, byName["StartDate"].FieldType)
	assert.Equal(t, domain.FieldTypeDateTime, byName["Joined"].FieldType)
	assert.Equal(t, domain.FieldTypeTime, byName["Shift"].FieldType)
	assert.Equal(t, domain.FieldTypeNumber, byName["Count"].FieldType)
}

func TestInferSchemaMixedValuesFallToText(t *testing.T) {
	sheet := sheetOf(
		[]string{"Mixed"},
		spreadsheet.Row{"Mixed": "42"},
		spreadsheet.Row{"Mixed": "not a number"},
	)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	require.Len(t, columns, 1)
	assert.Equal(t, domain.FieldTypeText, columns[0].FieldType)
	// Half the sample almost parsed as a number; Text only gets the rest.
	assert.InDelta(t, 0.5, columns[0].Confidence, 0.001)
}

func TestInferSchemaPartiallyParsableColumn(t *testing.T) {
	// Four of five values parse as numbers; the stray cell lowers the
	// confidence but does not flip the column to Text.
	sheet := sheetOf(
		[]string{"Count"},
		spreadsheet.Row{"Count": "1"},
		spreadsheet.Row{"Count": "2"},
		spreadsheet.Row{"Count": "3"},
		spreadsheet.Row{"Count": "4"},
		spreadsheet.Row{"Count": "n/a"},
	)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	require.Len(t, columns, 1)
	assert.Equal(t, domain.FieldTypeNumber, columns[0].FieldType)
	assert.InDelta(t, 0.8, columns[0].Confidence, 0.001)
	assert.Equal(t, 5, columns[0].SampleSize)
}

func TestInferSchemaEmptyColumnDefaultsToText(t *testing.T) {
	sheet := sheetOf(
		[]string{"Blank"},
		spreadsheet.Row{"Blank": ""},
		spreadsheet.Row{"Blank": "  "},
	)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	require.Len(t, columns, 1)
	assert.Equal(t, domain.FieldTypeText, columns[0].FieldType)
	assert.Equal(t, 1.0, columns[0].Confidence)
}

func TestInferSchemaIgnoresEmptyCells(t *testing.T) {
	sheet := sheetOf(
		[]string{"Count"},
		spreadsheet.Row{"Count": "3"},
		spreadsheet.Row{"Count": ""},
		spreadsheet.Row{"Count": "8"},
	)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	assert.Equal(t, domain.FieldTypeNumber, columns[0].FieldType)
	assert.Equal(t, 2, columns[0].SampleSize)
}

func TestInferSchemaSamplesBoundedPrefix(t *testing.T) {
	rows := make([]spreadsheet.Row, 0, 200)
	for i := 0; i < 200; i++ {
		rows = append(rows, spreadsheet.Row{"Count": "7"})
	}
	sheet := sheetOf([]string{"Count"}, rows...)

	columns := NewSchemaInferenceEngine().InferSchema(sheet)
	assert.Equal(t, InferenceSampleSize, columns[0].SampleSize)
}
