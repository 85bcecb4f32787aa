package service

import (
	"sort"
	"strings"

	"github.com/letterforge/letterforge/pkg/fuzzy"
)

// Mapping acceptance and suggestion thresholds over normalized
// edit-distance similarity.
const (
	mappingAcceptThreshold  = 0.6
	suggestionSimThreshold  = 0.3
	suggestionLimitPerField = 3
)

// FieldMapping is one resolved target field.
type FieldMapping struct {
	TargetField  string `json:"target_field"`
	SourceColumn string `json:"source_column,omitempty"`
	Matched      bool   `json:"matched"`
	// MatchKind records how the mapping was found: exact, substring or
	// fuzzy.
	MatchKind string `json:"match_kind,omitempty"`
}

// MappingSuggestion ranks a near-miss source column for an unmapped
// target.
type MappingSuggestion struct {
	SourceColumn string  `json:"source_column"`
	Similarity   float64 `json:"similarity"`
}

// MappingResult is the full mapper output: one entry per target field in
// target order, plus ranked suggestions for the unmapped ones.
type MappingResult struct {
	Mappings    []FieldMapping                 `json:"mappings"`
	Unmapped    []string                       `json:"unmapped"`
	Suggestions map[string][]MappingSuggestion `json:"suggestions,omitempty"`
}

// FieldMapper maps spreadsheet column headers onto target field keys. The
// mapper is deterministic: identical inputs produce identical output, with
// ties resolved by first occurrence in the source column list.
type FieldMapper struct{}

// NewFieldMapper creates a field mapper
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// Map resolves each target field against the source columns in three
// passes: case-insensitive exact match, substring containment in either
// direction, then fuzzy similarity above the acceptance threshold.
func (m *FieldMapper) Map(sourceColumns []string, targetFields []string) *MappingResult {
	result := &MappingResult{
		Mappings:    make([]FieldMapping, 0, len(targetFields)),
		Suggestions: map[string][]MappingSuggestion{},
	}

	for _, target := range targetFields {
		mapping := m.mapOne(sourceColumns, target)
		result.Mappings = append(result.Mappings, mapping)
		if !mapping.Matched {
			result.Unmapped = append(result.Unmapped, target)
			if suggestions := m.suggest(sourceColumns, target); len(suggestions) > 0 {
				result.Suggestions[target] = suggestions
			}
		}
	}
	return result
}

func (m *FieldMapper) mapOne(sourceColumns []string, target string) FieldMapping {
	targetLower := strings.ToLower(strings.TrimSpace(target))

	for _, source := range sourceColumns {
		if strings.ToLower(strings.TrimSpace(source)) == targetLower {
			return FieldMapping{TargetField: target, SourceColumn: source, Matched: true, MatchKind: "exact"}
		}
	}

	for _, source := range sourceColumns {
		sourceLower := strings.ToLower(strings.TrimSpace(source))
		if sourceLower == "" {
			continue
		}
		if strings.Contains(sourceLower, targetLower) || strings.Contains(targetLower, sourceLower) {
			return FieldMapping{TargetField: target, SourceColumn: source, Matched: true, MatchKind: "substring"}
		}
	}

	bestSim := 0.0
	bestSource := ""
	for _, source := range sourceColumns {
		// Strictly-greater keeps the first of equally similar columns.
		if sim := fuzzy.Similarity(source, target); sim > bestSim {
			bestSim = sim
			bestSource = source
		}
	}
	if bestSim > mappingAcceptThreshold {
		return FieldMapping{TargetField: target, SourceColumn: bestSource, Matched: true, MatchKind: "fuzzy"}
	}
	return FieldMapping{TargetField: target}
}

func (m *FieldMapper) suggest(sourceColumns []string, target string) []MappingSuggestion {
	var suggestions []MappingSuggestion
	for _, source := range sourceColumns {
		if sim := fuzzy.Similarity(source, target); sim > suggestionSimThreshold {
			suggestions = append(suggestions, MappingSuggestion{SourceColumn: source, Similarity: sim})
		}
	}
	// Stable sort preserves source order among equal similarities.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	if len(suggestions) > suggestionLimitPerField {
		suggestions = suggestions[:suggestionLimitPerField]
	}
	return suggestions
}
