package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation found in a tool's arguments.
type ValidationError struct {
	Tool     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, ", "))
}

func compileSchema(schema map[string]any) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	return compiled, nil
}

// validateArgs checks args against the tool's compiled schema and reports all violations at once.
func validateArgs(tool string, schema *gojsonschema.Schema, args map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Tool: tool, Problems: problems}
}
