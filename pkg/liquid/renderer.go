package liquid

import (
	"fmt"

	"github.com/osteele/liquid"
)

// RenderEmailTemplate renders a Liquid template with the provided data.
// This is used for the notification email bodies that accompany generated
// documents, not for the documents themselves.
func RenderEmailTemplate(template string, data map[string]interface{}) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template content is empty")
	}

	engine := liquid.NewEngine()

	rendered, err := engine.ParseAndRenderString(template, data)
	if err != nil {
		return "", fmt.Errorf("liquid rendering failed: %w", err)
	}

	return rendered, nil
}
