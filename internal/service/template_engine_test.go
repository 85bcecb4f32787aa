package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
)

func fixedTimeEngine(t *testing.T) *TemplateEngine {
	t.Helper()
	engine := NewTemplateEngine("Acme Corp")
	engine.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	}
	return engine
}

func contentOf(texts ...string) *domain.DocumentContent {
	runs := make([]domain.TextRun, 0, len(texts))
	for _, text := range texts {
		runs = append(runs, domain.TextRun{Text: text, Style: "body"})
	}
	return &domain.DocumentContent{Runs: runs}
}

func sampleRecord() *domain.DynamicRecord {
	return &domain.DynamicRecord{
		ExternalID:   "E001",
		Name:         "Avery Chen",
		Email:        "avery@example.com",
		Department:   "Engineering",
		Position:     "Engineer",
		CustomFields: map[string]string{"Salary": "55000.00"},
	}
}

func TestExtractPlaceholders(t *testing.T) {
	engine := fixedTimeEngine(t)
	content := contentOf(
		"Dear {{EmployeeName}}, welcome to {OrganizationName}.",
		"Your salary is {{Salary}} starting {StartDate}. Regards, {{EmployeeName}}.",
	)

	tokens := engine.ExtractPlaceholders(content)
	// De-duplicated, first-occurrence order, both grammars.
	assert.Equal(t, []string{"EmployeeName", "OrganizationName", "Salary", "StartDate"}, tokens)
}

func TestExtractPlaceholdersIgnoresMalformedTokens(t *testing.T) {
	engine := fixedTimeEngine(t)
	content := contentOf("{{9starts_with_digit}} {not closed {{}}")

	assert.Empty(t, engine.ExtractPlaceholders(content))
}

func TestRenderSubstitutesWithinRuns(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("Dear {{EmployeeName}},", "your salary is {{Salary}}.")

	rendered, warnings := engine.Render(template, sampleRecord(), nil, nil)
	assert.Empty(t, warnings)
	require.Len(t, rendered.Runs, 2)
	assert.Equal(t, "Dear Avery Chen,", rendered.Runs[0].Text)
	assert.Equal(t, "your salary is 55000.00.", rendered.Runs[1].Text)
	// Styling survives substitution.
	assert.Equal(t, "body", rendered.Runs[0].Style)
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("Dear {{EmployeeName}},")

	_, _ = engine.Render(template, sampleRecord(), nil, nil)
	assert.Equal(t, "Dear {{EmployeeName}},", template.Runs[0].Text)
}

func TestRenderPrecedence(t *testing.T) {
	engine := fixedTimeEngine(t)
	record := sampleRecord()
	// EmployeeName appears in standard fields; Salary in custom fields.
	record.CustomFields["EmployeeName"] = "Custom Name"
	template := contentOf("{{EmployeeName}} {{Salary}} {{OrganizationName}}")

	t.Run("custom fields override standard fields", func(t *testing.T) {
		rendered, _ := engine.Render(template, record, nil, nil)
		assert.Contains(t, rendered.Runs[0].Text, "Custom Name")
	})

	t.Run("extra values override everything", func(t *testing.T) {
		rendered, _ := engine.Render(template, record, nil, map[string]string{
			"EmployeeName": "Extra Name",
			"Salary":       "99999.00",
		})
		assert.Equal(t, "Extra Name 99999.00 Acme Corp", rendered.Runs[0].Text)
	})

	t.Run("callers may override system values", func(t *testing.T) {
		rendered, _ := engine.Render(template, record, map[string]string{
			"OrganizationName": "Globex",
		}, nil)
		assert.Contains(t, rendered.Runs[0].Text, "Globex")
	})
}

func TestRenderSystemValues(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("Generated {{CurrentDate}} at {{CurrentTime}} by {{OrganizationName}}")

	rendered, warnings := engine.Render(template, nil, nil, nil)
	assert.Empty(t, warnings)
	assert.Equal(t, "Generated 2026-03-10 at 14:30 by Acme Corp", rendered.Runs[0].Text)
}

func TestRenderUnmatchedTokensStayVerbatim(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("Dear {{EmployeeName}}, code {{SecretCode}} and {LegacyCode}.")

	rendered, warnings := engine.Render(template, sampleRecord(), nil, nil)
	assert.Equal(t, "Dear Avery Chen, code {{SecretCode}} and {LegacyCode}.", rendered.Runs[0].Text)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "SecretCode")
	assert.Contains(t, warnings[1], "LegacyCode")
}

func TestRenderRoundTrip(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("{{EmployeeName}} {{Unbound}} {{Salary}}")

	rendered, _ := engine.Render(template, sampleRecord(), nil, nil)
	// Only the tokens with no bound value survive extraction on the
	// rendered output; resolved tokens never reappear literally.
	assert.Equal(t, []string{"Unbound"}, engine.ExtractPlaceholders(rendered))
}

func TestRenderSinglePass(t *testing.T) {
	engine := fixedTimeEngine(t)
	template := contentOf("{{Outer}}")

	// A substituted value containing placeholder syntax is not rescanned.
	rendered, _ := engine.Render(template, nil, nil, map[string]string{
		"Outer": "{{Inner}}",
		"Inner": "should never appear",
	})
	assert.Equal(t, "{{Inner}}", rendered.Runs[0].Text)
}
