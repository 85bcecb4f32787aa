package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/logger"
	"github.com/letterforge/letterforge/pkg/spreadsheet"
)

// ImportResult is the import call contract.
type ImportResult struct {
	Success       bool           `json:"success"`
	RowsProcessed int            `json:"rows_processed"`
	FieldMappings *MappingResult `json:"field_mappings"`
	Errors        []string       `json:"errors,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// ImportService turns raw tabular bytes into the letter type's record set.
// The whole replacement happens inside one repository transaction, so a
// failed import leaves the previous record set intact.
type ImportService struct {
	letterTypeRepo domain.LetterTypeRepository
	recordRepo     domain.DynamicRecordRepository
	reader         spreadsheet.Reader
	mapper         *FieldMapper
	inference      *SchemaInferenceEngine
	metrics        *metrics.Metrics
	logger         logger.Logger
}

// NewImportService creates an import service
func NewImportService(
	letterTypeRepo domain.LetterTypeRepository,
	recordRepo domain.DynamicRecordRepository,
	reader spreadsheet.Reader,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ImportService {
	return &ImportService{
		letterTypeRepo: letterTypeRepo,
		recordRepo:     recordRepo,
		reader:         reader,
		mapper:         NewFieldMapper(),
		inference:      NewSchemaInferenceEngine(),
		metrics:        metrics,
		logger:         logger,
	}
}

// InferSchema proposes a field schema for raw tabular bytes without
// importing anything.
func (s *ImportService) InferSchema(data []byte) ([]InferredColumn, error) {
	sheet, err := s.reader.Read(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewStructuralError("failed to read spreadsheet", err)
	}
	return s.inference.InferSchema(sheet), nil
}

// Import maps the sheet's columns onto the letter type's fields and
// replaces the record set wholesale. overrides pins a target field to an
// explicit source column, bypassing the mapper for that field.
func (s *ImportService) Import(ctx context.Context, letterTypeID string, data []byte, overrides map[string]string) (*ImportResult, error) {
	letterType, err := s.letterTypeRepo.GetLetterTypeByID(ctx, letterTypeID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewStructuralError("unknown letter type", err)
		}
		return nil, err
	}

	sheet, err := s.reader.Read(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewStructuralError("failed to read spreadsheet", err)
	}
	if len(sheet.Rows) == 0 {
		return nil, domain.NewStructuralError("spreadsheet contains no data rows", nil)
	}

	targets := make([]string, 0, len(domain.StandardFieldKeys)+len(letterType.Fields))
	targets = append(targets, domain.StandardFieldKeys...)
	for _, f := range letterType.Fields {
		targets = append(targets, f.FieldKey)
	}

	mappingResult := s.mapper.Map(sheet.Columns, targets)
	applyOverrides(mappingResult, overrides)

	columnFor := map[string]string{}
	for _, m := range mappingResult.Mappings {
		if m.Matched {
			columnFor[m.TargetField] = m.SourceColumn
		}
	}

	result := &ImportResult{FieldMappings: mappingResult}
	now := time.Now().UTC()
	records := make([]*domain.DynamicRecord, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		record, warnings, err := s.buildRecord(row, columnFor, letterType.Fields, now)
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		record.LetterTypeID = letterTypeID
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, domain.NewStructuralError("no importable rows", nil)
	}

	if err := s.recordRepo.EnsureTable(ctx, letterTypeID); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Import(ctx, letterTypeID, records); err != nil {
		return nil, err
	}
	s.metrics.RecordsImported.Add(float64(len(records)))

	s.logger.WithFields(map[string]interface{}{
		"letter_type_id": letterTypeID,
		"rows":           len(records),
	}).Info("imported dynamic records")

	result.Success = len(result.Errors) == 0
	result.RowsProcessed = len(records)
	return result, nil
}

func (s *ImportService) buildRecord(
	row spreadsheet.Row,
	columnFor map[string]string,
	fields []*domain.DynamicField,
	now time.Time,
) (*domain.DynamicRecord, []string, error) {
	valueFor := func(target string) string {
		column, ok := columnFor[target]
		if !ok {
			return ""
		}
		return row[column]
	}

	externalID := valueFor("EmployeeId")
	if externalID == "" {
		return nil, nil, fmt.Errorf("missing employee id")
	}

	record := &domain.DynamicRecord{
		ID:           uuid.NewString(),
		ExternalID:   externalID,
		Name:         valueFor("EmployeeName"),
		Email:        valueFor("Email"),
		Phone:        valueFor("Phone"),
		Department:   valueFor("Department"),
		Position:     valueFor("Position"),
		IsActive:     true,
		CustomFields: map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Definition order keeps warning order stable across runs.
	var warnings []string
	for _, field := range fields {
		key := field.FieldKey
		raw := valueFor(key)
		if raw == "" {
			if field.DefaultValue != "" {
				raw = field.DefaultValue
			} else {
				if field.Required {
					warnings = append(warnings, fmt.Sprintf("record %s: required field %s is empty", externalID, key))
				}
				continue
			}
		}
		// Store the canonical form so placeholder substitution and typed
		// queries agree on what the value looks like.
		value, err := field.FieldType.Parse(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("record %s: field %s: %v", externalID, key, err))
			record.CustomFields[key] = raw
			continue
		}
		record.CustomFields[key] = field.FieldType.Format(value)
	}
	return record, warnings, nil
}

func applyOverrides(result *MappingResult, overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	for i, m := range result.Mappings {
		if column, ok := overrides[m.TargetField]; ok {
			result.Mappings[i] = FieldMapping{
				TargetField:  m.TargetField,
				SourceColumn: column,
				Matched:      true,
				MatchKind:    "override",
			}
		}
	}
	// Overridden targets are mapped now; rebuild the unmapped list.
	var unmapped []string
	for _, m := range result.Mappings {
		if !m.Matched {
			unmapped = append(unmapped, m.TargetField)
		} else {
			delete(result.Suggestions, m.TargetField)
		}
	}
	result.Unmapped = unmapped
}
