package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/domain/mocks"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/logger"
	"github.com/letterforge/letterforge/pkg/spreadsheet"
)

func newImportFixture(t *testing.T) (*ImportService, *mocks.MockLetterTypeRepository, *mocks.MockDynamicRecordRepository) {
	letterTypeRepo := &mocks.MockLetterTypeRepository{}
	recordRepo := &mocks.MockDynamicRecordRepository{}
	svc := NewImportService(letterTypeRepo, recordRepo, spreadsheet.NewCSVReader(), metrics.NewNop(), logger.NewTestLogger(t))
	return svc, letterTypeRepo, recordRepo
}

func importLetterType(fields ...*domain.DynamicField) *domain.LetterTypeDefinition {
	return &domain.LetterTypeDefinition{
		ID:          "lt-1",
		TypeKey:     "offer_letter",
		DisplayName: "Offer Letter",
		DataSource:  domain.DataSourceSpreadsheet,
		Fields:      fields,
	}
}

func TestImportWithOverrides(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)

	var imported []*domain.DynamicRecord
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).
		Run(func(args mock.Arguments) {
			imported = args.Get(2).([]*domain.DynamicRecord)
		}).
		Return(nil)

	// "Emp ID" and "Emp Name" sit below the automatic match threshold;
	// the caller pins them to their targets explicitly.
	data := []byte("Emp ID,Emp Name,Email\n" +
		"E001,Avery Chen,avery@example.com\n" +
		"E002,Sam Okafor,sam@example.com\n" +
		"E003,Priya Nair,priya@example.com\n")

	result, err := svc.Import(context.Background(), "lt-1", data, map[string]string{
		"EmployeeId":   "Emp ID",
		"EmployeeName": "Emp Name",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.RowsProcessed)
	assert.Empty(t, result.Errors)

	require.Len(t, imported, 3)
	assert.Equal(t, "E001", imported[0].ExternalID)
	assert.Equal(t, "Avery Chen", imported[0].Name)
	assert.Equal(t, "avery@example.com", imported[0].Email)
	assert.Empty(t, imported[0].CustomFields)
	assert.Equal(t, "lt-1", imported[0].LetterTypeID)

	// Overridden targets are no longer unmapped and carry no suggestions.
	assert.NotContains(t, result.FieldMappings.Unmapped, "EmployeeId")
	assert.NotContains(t, result.FieldMappings.Unmapped, "EmployeeName")
	assert.NotContains(t, result.FieldMappings.Suggestions, "EmployeeId")
	for _, m := range result.FieldMappings.Mappings {
		if m.TargetField == "EmployeeId" {
			assert.Equal(t, "override", m.MatchKind)
			assert.Equal(t, "Emp ID", m.SourceColumn)
		}
	}
}

func TestImportCanonicalizesCustomFields(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(
		&domain.DynamicField{FieldKey: "Salary", FieldType: domain.FieldTypeCurrency},
		&domain.DynamicField{FieldKey: "StartDate", FieldType: domain.FieldTypeDate},
		&domain.DynamicField{FieldKey: "Grade", FieldType: domain.FieldTypeText, DefaultValue: "L1"},
	), nil)

	var imported []*domain.DynamicRecord
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).
		Run(func(args mock.Arguments) {
			imported = args.Get(2).([]*domain.DynamicRecord)
		}).
		Return(nil)

	data := []byte("EmployeeId,EmployeeName,Salary,StartDate\n" +
		"E001,Avery Chen,\"$75,000\",03/15/2026\n")

	result, err := svc.Import(context.Background(), "lt-1", data, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, imported, 1)
	assert.Equal(t, "75000.00", imported[0].CustomFields["Salary"])
	assert.Equal(t, "2026-03-15", imported[0].CustomFields["StartDate"])
	// Empty cell falls back to the field's default.
	assert.Equal(t, "L1", imported[0].CustomFields["Grade"])
}

func TestImportCountsImportedRecords(t *testing.T) {
	letterTypeRepo := &mocks.MockLetterTypeRepository{}
	recordRepo := &mocks.MockDynamicRecordRepository{}
	m := metrics.NewNop()
	svc := NewImportService(letterTypeRepo, recordRepo, spreadsheet.NewCSVReader(), m, logger.NewTestLogger(t))

	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).Return(nil)

	data := []byte("EmployeeId,EmployeeName\nE001,Avery Chen\nE002,Sam Okafor\n")
	_, err := svc.Import(context.Background(), "lt-1", data, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsImported))
}

func TestImportWarningOrderFollowsFieldDefinitions(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(
		&domain.DynamicField{FieldKey: "Salary", FieldType: domain.FieldTypeCurrency},
		&domain.DynamicField{FieldKey: "StartDate", FieldType: domain.FieldTypeDate},
		&domain.DynamicField{FieldKey: "Grade", FieldType: domain.FieldTypeText, Required: true},
	), nil)
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).Return(nil)

	data := []byte("EmployeeId,EmployeeName,Salary,StartDate\n" +
		"E001,Avery Chen,negotiable,someday\n")

	result, err := svc.Import(context.Background(), "lt-1", data, nil)
	require.NoError(t, err)

	// Warnings come back in field definition order, run after run.
	require.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0], "Salary")
	assert.Contains(t, result.Warnings[1], "StartDate")
	assert.Contains(t, result.Warnings[2], "Grade")
}

func TestImportKeepsRawValueOnParseFailure(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(
		&domain.DynamicField{FieldKey: "Salary", FieldType: domain.FieldTypeCurrency},
	), nil)

	var imported []*domain.DynamicRecord
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).
		Run(func(args mock.Arguments) {
			imported = args.Get(2).([]*domain.DynamicRecord)
		}).
		Return(nil)

	data := []byte("EmployeeId,EmployeeName,Salary\nE001,Avery Chen,negotiable\n")

	result, err := svc.Import(context.Background(), "lt-1", data, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Salary")
	assert.Equal(t, "negotiable", imported[0].CustomFields["Salary"])
}

func TestImportSkipsRowsWithoutEmployeeID(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)

	var imported []*domain.DynamicRecord
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).
		Run(func(args mock.Arguments) {
			imported = args.Get(2).([]*domain.DynamicRecord)
		}).
		Return(nil)

	data := []byte("EmployeeId,EmployeeName\nE001,Avery Chen\n,Nameless Row\nE003,Priya Nair\n")

	result, err := svc.Import(context.Background(), "lt-1", data, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.RowsProcessed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 2")
	require.Len(t, imported, 2)
	assert.Equal(t, "E003", imported[1].ExternalID)
}

func TestImportStructuralErrors(t *testing.T) {
	t.Run("unknown letter type", func(t *testing.T) {
		svc, letterTypeRepo, _ := newImportFixture(t)
		letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-missing").
			Return(nil, &domain.ErrNotFound{Entity: "letter type", ID: "lt-missing"})

		_, err := svc.Import(context.Background(), "lt-missing", []byte("EmployeeId\nE001\n"), nil)
		assert.True(t, domain.IsStructural(err))
	})

	t.Run("no data rows", func(t *testing.T) {
		svc, letterTypeRepo, _ := newImportFixture(t)
		letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)

		_, err := svc.Import(context.Background(), "lt-1", []byte("EmployeeId,EmployeeName\n"), nil)
		assert.True(t, domain.IsStructural(err))
	})

	t.Run("no importable rows", func(t *testing.T) {
		svc, letterTypeRepo, _ := newImportFixture(t)
		letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)

		_, err := svc.Import(context.Background(), "lt-1", []byte("EmployeeId,EmployeeName\n,Nameless\n"), nil)
		assert.True(t, domain.IsStructural(err))
	})
}

func TestImportFailureKeepsPreviousRecords(t *testing.T) {
	svc, letterTypeRepo, recordRepo := newImportFixture(t)
	letterTypeRepo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(importLetterType(), nil)
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)
	recordRepo.On("Import", mock.Anything, "lt-1", mock.Anything).
		Return(assert.AnError)

	_, err := svc.Import(context.Background(), "lt-1", []byte("EmployeeId,EmployeeName\nE001,Avery Chen\n"), nil)
	assert.Error(t, err)
}

func TestInferSchemaFromBytes(t *testing.T) {
	svc, _, _ := newImportFixture(t)

	columns, err := svc.InferSchema([]byte("Name,Salary\nAvery,\"$50,000\"\nSam,\"$72,500\"\n"))
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, domain.FieldTypeText, columns[0].FieldType)
	assert.Equal(t, domain.FieldTypeCurrency, columns[1].FieldType)
}
