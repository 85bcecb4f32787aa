package domain

import (
	"context"
	"time"
)

// TextRun is one styled run of text inside a document. Substitution happens
// within a run; the style reference is opaque to the pipeline and is
// carried through untouched so surrounding formatting survives rendering.
type TextRun struct {
	Text  string `json:"text"`
	Style string `json:"style,omitempty"`
}

// DocumentContent is the ordered run list of a document body.
type DocumentContent struct {
	Runs []TextRun `json:"runs"`
}

// Clone returns a deep copy so rendering never mutates the template.
func (c *DocumentContent) Clone() *DocumentContent {
	runs := make([]TextRun, len(c.Runs))
	copy(runs, c.Runs)
	return &DocumentContent{Runs: runs}
}

// PlainText concatenates all runs, losing style boundaries. Used for
// previews and tests.
func (c *DocumentContent) PlainText() string {
	var out string
	for _, run := range c.Runs {
		out += run.Text
	}
	return out
}

// DocumentTemplate is a versioned template body plus its extracted
// placeholder tokens. A version is immutable once referenced by a
// generated document; a new upload bumps the version.
type DocumentTemplate struct {
	ID           string          `json:"id"`
	LetterTypeID string          `json:"letter_type_id"`
	Name         string          `json:"name"`
	Version      int             `json:"version"`
	Content      DocumentContent `json:"content"`
	Placeholders []string        `json:"placeholders"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks the template before persistence.
func (t *DocumentTemplate) Validate() error {
	if t.ID == "" {
		return NewValidationError("template id is required")
	}
	if t.LetterTypeID == "" {
		return NewValidationError("template letter type id is required")
	}
	if t.Name == "" {
		return NewValidationError("template name is required")
	}
	if t.Version < 1 {
		return NewValidationError("template version must be at least 1")
	}
	if len(t.Content.Runs) == 0 {
		return NewValidationError("template content is empty")
	}
	return nil
}

// TemplateRepository persists document templates. Uploading over an
// existing template creates a new version row; old versions stay readable
// for the generated documents that reference them.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template *DocumentTemplate) error
	// GetTemplateByID returns the requested version, or the latest when
	// version is 0.
	GetTemplateByID(ctx context.Context, id string, version int) (*DocumentTemplate, error)
	ListTemplates(ctx context.Context, letterTypeID string) ([]*DocumentTemplate, error)
}
