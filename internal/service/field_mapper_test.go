package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapperExactMatch(t *testing.T) {
	mapper := NewFieldMapper()
	result := mapper.Map([]string{"Email", "Department"}, []string{"email", "Department"})

	require.Len(t, result.Mappings, 2)
	assert.True(t, result.Mappings[0].Matched)
	assert.Equal(t, "Email", result.Mappings[0].SourceColumn)
	assert.Equal(t, "exact", result.Mappings[0].MatchKind)
	assert.True(t, result.Mappings[1].Matched)
	assert.Empty(t, result.Unmapped)
}

func TestFieldMapperSubstringMatch(t *testing.T) {
	mapper := NewFieldMapper()
	result := mapper.Map([]string{"Employee Email Address"}, []string{"Email"})

	require.Len(t, result.Mappings, 1)
	assert.True(t, result.Mappings[0].Matched)
	assert.Equal(t, "substring", result.Mappings[0].MatchKind)
	assert.Equal(t, "Employee Email Address", result.Mappings[0].SourceColumn)
}

func TestFieldMapperFuzzyMatch(t *testing.T) {
	mapper := NewFieldMapper()
	// "Developmant" misspells "Department" closely enough to clear the
	// acceptance threshold.
	result := mapper.Map([]string{"Departmant"}, []string{"Department"})

	require.Len(t, result.Mappings, 1)
	assert.True(t, result.Mappings[0].Matched)
	assert.Equal(t, "fuzzy", result.Mappings[0].MatchKind)
}

func TestFieldMapperUnmappedWithSuggestions(t *testing.T) {
	mapper := NewFieldMapper()
	// "Emp ID" is too far from "EmployeeId" for automatic acceptance but
	// close enough to suggest.
	result := mapper.Map([]string{"Emp ID", "Emp Name", "Email"}, []string{"EmployeeId", "EmployeeName", "Email"})

	assert.Contains(t, result.Unmapped, "EmployeeId")
	assert.Contains(t, result.Unmapped, "EmployeeName")
	require.NotEmpty(t, result.Suggestions["EmployeeId"])
	assert.Equal(t, "Emp ID", result.Suggestions["EmployeeId"][0].SourceColumn)
	require.NotEmpty(t, result.Suggestions["EmployeeName"])
	assert.Equal(t, "Emp Name", result.Suggestions["EmployeeName"][0].SourceColumn)
}

func TestFieldMapperSuggestionCap(t *testing.T) {
	mapper := NewFieldMapper()
	sources := []string{"Salaary", "Salarie", "Salry", "Sallary", "Salory"}
	result := mapper.Map(sources, []string{"Compensation"})

	suggestions := result.Suggestions["Compensation"]
	assert.LessOrEqual(t, len(suggestions), 3)
}

func TestFieldMapperDeterministic(t *testing.T) {
	mapper := NewFieldMapper()
	sources := []string{"Dept", "Department Name", "Departmant"}
	targets := []string{"Department", "Position"}

	first := mapper.Map(sources, targets)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, mapper.Map(sources, targets))
	}
}

func TestFieldMapperTieBreaksByFirstOccurrence(t *testing.T) {
	mapper := NewFieldMapper()
	// Both sources normalize to the same string; the first one wins.
	result := mapper.Map([]string{"E-mail", "E mail"}, []string{"Email"})

	require.Len(t, result.Mappings, 1)
	assert.True(t, result.Mappings[0].Matched)
	assert.Equal(t, "E-mail", result.Mappings[0].SourceColumn)
}
