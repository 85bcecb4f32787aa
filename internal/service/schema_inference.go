package service

import (
	"strings"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/spreadsheet"
)

// InferenceSampleSize bounds how many rows the inference pass reads per
// column. Spreadsheets routinely run to tens of thousands of rows; the
// first fifty are enough to type a column.
const InferenceSampleSize = 50

// InferredColumn is one column's proposed schema entry.
type InferredColumn struct {
	ColumnName string           `json:"column_name"`
	FieldType  domain.FieldType `json:"field_type"`
	// Confidence is the share of sampled non-empty values that parsed
	// under the inferred type. A Text fallthrough reports the share the
	// best structured candidate could not parse.
	Confidence float64 `json:"confidence"`
	SampleSize int     `json:"sample_size"`
}

// inferenceConfidenceThreshold is the minimum parsed share a structured
// type needs to win a column. Below it the column stays Text.
const inferenceConfidenceThreshold = 0.8

// SchemaInferenceEngine proposes a field schema from raw tabular rows.
type SchemaInferenceEngine struct {
	sampleSize int
}

// NewSchemaInferenceEngine creates an inference engine with the default
// sample bound.
func NewSchemaInferenceEngine() *SchemaInferenceEngine {
	return &SchemaInferenceEngine{sampleSize: InferenceSampleSize}
}

// InferSchema types every column of the sheet. Unparsable cells never
// error; they count against a candidate type's confidence and the column
// falls through to Text.
func (e *SchemaInferenceEngine) InferSchema(sheet *spreadsheet.Sheet) []InferredColumn {
	columns := make([]InferredColumn, 0, len(sheet.Columns))
	for _, name := range sheet.Columns {
		columns = append(columns, e.inferColumn(name, sheet.Rows))
	}
	return columns
}

// candidateTypes is the inference precedence. More specific types are
// tried before more general ones; Text never appears because it is the
// unconditional fallback.
var candidateTypes = []struct {
	fieldType domain.FieldType
	matches   func(raw string) bool
}{
	{domain.FieldTypeBoolean, domain.IsBooleanToken},
	{domain.FieldTypeCurrency, func(raw string) bool {
		return hasCurrencyMarker(raw) && parsesAsDecimal(raw)
	}},
	{domain.FieldTypePercentage, func(raw string) bool {
		return strings.HasSuffix(strings.TrimSpace(raw), "%") && parsesAsDecimal(raw)
	}},
	{domain.FieldTypeNumber, parsesAsDecimal},
	{domain.FieldTypeDateTime, func(raw string) bool {
		return domain.MatchesTemporal(raw, domain.DateTimeLayouts)
	}},
	{domain.FieldTypeDate, func(raw string) bool {
		return domain.MatchesTemporal(raw, domain.DateLayouts)
	}},
	{domain.FieldTypeTime, func(raw string) bool {
		return domain.MatchesTemporal(raw, domain.TimeLayouts)
	}},
}

func (e *SchemaInferenceEngine) inferColumn(name string, rows []spreadsheet.Row) InferredColumn {
	values := make([]string, 0, e.sampleSize)
	for _, row := range rows {
		if len(values) == e.sampleSize {
			break
		}
		if v := strings.TrimSpace(row[name]); v != "" {
			values = append(values, v)
		}
	}

	// An empty column defaults to Text.
	if len(values) == 0 {
		return InferredColumn{ColumnName: name, FieldType: domain.FieldTypeText, Confidence: 1}
	}

	// Precedence order doubles as the tie-breaker: an earlier candidate
	// with the same parsed share wins.
	bestFraction := 0.0
	bestType := domain.FieldTypeText
	for _, candidate := range candidateTypes {
		matched := 0
		for _, v := range values {
			if candidate.matches(v) {
				matched++
			}
		}
		fraction := float64(matched) / float64(len(values))
		if fraction > bestFraction {
			bestFraction = fraction
			bestType = candidate.fieldType
		}
	}

	if bestFraction >= inferenceConfidenceThreshold {
		return InferredColumn{
			ColumnName: name,
			FieldType:  bestType,
			Confidence: bestFraction,
			SampleSize: len(values),
		}
	}

	return InferredColumn{
		ColumnName: name,
		FieldType:  domain.FieldTypeText,
		Confidence: 1 - bestFraction,
		SampleSize: len(values),
	}
}

func parsesAsDecimal(raw string) bool {
	_, err := domain.ParseDecimal(raw)
	return err == nil
}

func hasCurrencyMarker(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	for _, prefix := range []string{"$", "€", "£", "₹"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
