package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/letterforge/letterforge/internal/domain"
)

// System value keys every render carries. Callers override both through
// the system value map.
const (
	SystemValueCurrentDate      = "CurrentDate"
	SystemValueCurrentTime      = "CurrentTime"
	SystemValueOrganizationName = "OrganizationName"
)

// tokenRegex matches both placeholder grammars in one pass. The
// double-brace alternative comes first so {{Token}} is never picked apart
// into a legacy {Token} match.
var tokenRegex = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9_]*)\}\}|\{([A-Za-z][A-Za-z0-9_]*)\}`)

// TemplateEngine extracts and substitutes document placeholders.
type TemplateEngine struct {
	organizationName string
	now              func() time.Time
}

// NewTemplateEngine creates a template engine. organizationName becomes
// the default OrganizationName system value.
func NewTemplateEngine(organizationName string) *TemplateEngine {
	return &TemplateEngine{
		organizationName: organizationName,
		now:              time.Now,
	}
}

// ExtractPlaceholders returns the de-duplicated token set of a document in
// first-occurrence order. Both {{Token}} and the legacy {Token} form
// count.
func (e *TemplateEngine) ExtractPlaceholders(content *domain.DocumentContent) []string {
	seen := map[string]bool{}
	var tokens []string
	for _, run := range content.Runs {
		for _, match := range tokenRegex.FindAllStringSubmatch(run.Text, -1) {
			token := match[1]
			if token == "" {
				token = match[2]
			}
			if !seen[token] {
				seen[token] = true
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}

// Render substitutes placeholders within each text run of the template,
// never across run boundaries, so surrounding styling survives untouched.
// Value precedence is extraValues over record custom fields over record
// standard fields over system values. Unmatched tokens stay verbatim and
// come back as warnings; a missing value is never an error.
func (e *TemplateEngine) Render(
	template *domain.DocumentContent,
	record *domain.DynamicRecord,
	systemValues map[string]string,
	extraValues map[string]string,
) (*domain.DocumentContent, []string) {
	table := e.buildReplacementTable(record, systemValues, extraValues)

	rendered := template.Clone()
	unresolved := map[string]bool{}
	for i, run := range rendered.Runs {
		rendered.Runs[i].Text = tokenRegex.ReplaceAllStringFunc(run.Text, func(match string) string {
			token := trimDelimiters(match)
			if value, ok := table[token]; ok {
				return value
			}
			unresolved[token] = true
			return match
		})
	}

	var warnings []string
	// Report unresolved tokens in template order for a stable warning list.
	for _, token := range e.ExtractPlaceholders(template) {
		if unresolved[token] {
			warnings = append(warnings, fmt.Sprintf("no value bound for placeholder %q", token))
		}
	}
	return rendered, warnings
}

func (e *TemplateEngine) buildReplacementTable(
	record *domain.DynamicRecord,
	systemValues map[string]string,
	extraValues map[string]string,
) map[string]string {
	table := map[string]string{
		SystemValueCurrentDate:      e.now().Format("2006-01-02"),
		SystemValueCurrentTime:      e.now().Format("15:04"),
		SystemValueOrganizationName: e.organizationName,
	}
	for k, v := range systemValues {
		table[k] = v
	}
	if record != nil {
		for k, v := range record.StandardValues() {
			table[k] = v
		}
		for k, v := range record.CustomFields {
			table[k] = v
		}
	}
	for k, v := range extraValues {
		table[k] = v
	}
	return table
}

func trimDelimiters(match string) string {
	token := match
	for len(token) > 0 && token[0] == '{' {
		token = token[1:]
	}
	for len(token) > 0 && token[len(token)-1] == '}' {
		token = token[:len(token)-1]
	}
	return token
}
