package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType is the closed enumeration of dynamic field types. Every
// consumption site (renderer, validator, default-value converter) goes
// through the conversion table below, so adding a type is a compile-time
// checked change rather than a silently ignored new string.
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeNumber     FieldType = "number"
	FieldTypeDate       FieldType = "date"
	FieldTypeDateTime   FieldType = "datetime"
	FieldTypeTime       FieldType = "time"
	FieldTypeEmail      FieldType = "email"
	FieldTypePhone      FieldType = "phone"
	FieldTypeCurrency   FieldType = "currency"
	FieldTypePercentage FieldType = "percentage"
	FieldTypeBoolean    FieldType = "boolean"
	FieldTypeDropdown   FieldType = "dropdown"
	FieldTypeTextArea   FieldType = "textarea"
	FieldTypeUrl        FieldType = "url"
	FieldTypeImage      FieldType = "image"
	FieldTypeFile       FieldType = "file"
	FieldTypeJson       FieldType = "json"
)

// FieldValueKind tags the variant held by a FieldValue.
type FieldValueKind int

const (
	ValueKindText FieldValueKind = iota
	ValueKindNumber
	ValueKindBool
	ValueKindTime
	ValueKindJSON
)

// FieldValue is the typed value union for dynamic field data. Exactly one
// variant is meaningful, selected by Kind; Raw always carries the original
// input.
type FieldValue struct {
	Kind   FieldValueKind
	Raw    string
	Text   string
	Number float64
	Bool   bool
	Time   time.Time
	JSON   json.RawMessage
}

// fieldConverter centralizes parse and format logic for one field type.
type fieldConverter struct {
	parse  func(raw string) (FieldValue, error)
	format func(v FieldValue) string
}

// Accepted temporal layouts, ordered. Shared by the schema inference
// engine and the converters so both agree on what a date is.
var (
	DateLayouts = []string{
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"2006/01/02",
		"02-Jan-2006",
	}
	DateTimeLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"02/01/2006 15:04",
	}
	TimeLayouts = []string{
		"15:04:05",
		"15:04",
		"3:04 PM",
		"3:04PM",
	}
)

// Boolean tokens accepted for boolean cells, lowercased.
var booleanTokens = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"1": true, "0": false,
	"on": true, "off": false,
}

func textConverter() fieldConverter {
	return fieldConverter{
		parse: func(raw string) (FieldValue, error) {
			return FieldValue{Kind: ValueKindText, Raw: raw, Text: raw}, nil
		},
		format: func(v FieldValue) string { return v.Text },
	}
}

func numberConverter(format func(v FieldValue) string) fieldConverter {
	return fieldConverter{
		parse: func(raw string) (FieldValue, error) {
			n, err := ParseDecimal(raw)
			if err != nil {
				return FieldValue{}, err
			}
			return FieldValue{Kind: ValueKindNumber, Raw: raw, Number: n}, nil
		},
		format: format,
	}
}

func temporalConverter(layouts []string, outLayout string) fieldConverter {
	return fieldConverter{
		parse: func(raw string) (FieldValue, error) {
			t, err := parseTemporal(raw, layouts)
			if err != nil {
				return FieldValue{}, err
			}
			return FieldValue{Kind: ValueKindTime, Raw: raw, Time: t}, nil
		},
		format: func(v FieldValue) string { return v.Time.Format(outLayout) },
	}
}

// fieldConverters is the single conversion table for every field type.
// Renderer, validator and default-value coercion all dispatch through it.
var fieldConverters = map[FieldType]fieldConverter{
	FieldTypeText:     textConverter(),
	FieldTypeTextArea: textConverter(),
	// Dropdown values are selection keys, Image/File values are stored
	// file references: all plain text at this layer.
	FieldTypeDropdown: textConverter(),
	FieldTypeImage:    textConverter(),
	FieldTypeFile:     textConverter(),
	FieldTypePhone:    textConverter(),

	FieldTypeNumber: numberConverter(func(v FieldValue) string {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}),
	FieldTypeCurrency: numberConverter(func(v FieldValue) string {
		return strconv.FormatFloat(v.Number, 'f', 2, 64)
	}),
	FieldTypePercentage: numberConverter(func(v FieldValue) string {
		return strconv.FormatFloat(v.Number, 'f', -1, 64) + "%"
	}),

	FieldTypeDate:     temporalConverter(DateLayouts, "2006-01-02"),
	FieldTypeDateTime: temporalConverter(DateTimeLayouts, "2006-01-02 15:04:05"),
	FieldTypeTime:     temporalConverter(TimeLayouts, "15:04"),

	FieldTypeEmail: {
		parse: func(raw string) (FieldValue, error) {
			trimmed := strings.TrimSpace(raw)
			if !strings.Contains(trimmed, "@") {
				return FieldValue{}, fmt.Errorf("invalid email value: %q", raw)
			}
			return FieldValue{Kind: ValueKindText, Raw: raw, Text: trimmed}, nil
		},
		format: func(v FieldValue) string { return v.Text },
	},

	FieldTypeUrl: {
		parse: func(raw string) (FieldValue, error) {
			trimmed := strings.TrimSpace(raw)
			if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
				return FieldValue{}, fmt.Errorf("invalid url value: %q", raw)
			}
			return FieldValue{Kind: ValueKindText, Raw: raw, Text: trimmed}, nil
		},
		format: func(v FieldValue) string { return v.Text },
	},

	FieldTypeBoolean: {
		parse: func(raw string) (FieldValue, error) {
			b, ok := booleanTokens[strings.ToLower(strings.TrimSpace(raw))]
			if !ok {
				return FieldValue{}, fmt.Errorf("invalid boolean value: %q", raw)
			}
			return FieldValue{Kind: ValueKindBool, Raw: raw, Bool: b}, nil
		},
		format: func(v FieldValue) string { return strconv.FormatBool(v.Bool) },
	},

	FieldTypeJson: {
		parse: func(raw string) (FieldValue, error) {
			if !json.Valid([]byte(raw)) {
				return FieldValue{}, fmt.Errorf("invalid json value")
			}
			return FieldValue{Kind: ValueKindJSON, Raw: raw, JSON: json.RawMessage(raw)}, nil
		},
		format: func(v FieldValue) string { return string(v.JSON) },
	},
}

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	_, ok := fieldConverters[t]
	return ok
}

// Parse coerces a raw cell value into the type's value union.
func (t FieldType) Parse(raw string) (FieldValue, error) {
	conv, ok := fieldConverters[t]
	if !ok {
		return FieldValue{}, fmt.Errorf("unknown field type: %s", t)
	}
	return conv.parse(raw)
}

// Format renders a parsed value back to its canonical string form, the
// form placeholders are substituted with.
func (t FieldType) Format(v FieldValue) string {
	conv, ok := fieldConverters[t]
	if !ok {
		return v.Raw
	}
	return conv.format(v)
}

// AllFieldTypes returns the closed set of field types in a stable order.
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeDateTime,
		FieldTypeTime, FieldTypeEmail, FieldTypePhone, FieldTypeCurrency,
		FieldTypePercentage, FieldTypeBoolean, FieldTypeDropdown,
		FieldTypeTextArea, FieldTypeUrl, FieldTypeImage, FieldTypeFile,
		FieldTypeJson,
	}
}

// ParseDecimal parses a numeric cell, tolerating currency symbols, percent
// signs and thousand separators.
func ParseDecimal(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.TrimPrefix(cleaned, "£")
	cleaned = strings.TrimPrefix(cleaned, "₹")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// IsBooleanToken reports whether raw parses as a boolean cell.
func IsBooleanToken(raw string) bool {
	_, ok := booleanTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

func parseTemporal(raw string, layouts []string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized temporal value: %q", raw)
}

// MatchesTemporal reports whether raw parses under any of the layouts.
func MatchesTemporal(raw string, layouts []string) bool {
	_, err := parseTemporal(raw, layouts)
	return err == nil
}

func isStructurallyValidJSON(doc []byte) bool {
	return json.Valid(doc)
}
