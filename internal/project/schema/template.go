package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// archetypeKey is the placeholder subtree renamed to the project slug.
const archetypeKey = "project"

var (
	ErrMalformedTemplate = errors.New("malformed schema template")
	ErrReservedSlug      = errors.New("project slug collides with a template data property")
)

//go:embed base.json
var baseTemplate []byte

// Template is the parsed base JSON Schema every project schema is derived
// from. It is never modified after loading.
type Template struct {
	root map[string]any
}

// DefaultTemplate returns the template embedded in the binary.
func DefaultTemplate() (*Template, error) {
	return ParseTemplate(baseTemplate)
}

// LoadTemplate reads a template from disk. Comments and trailing commas are
// allowed.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate parses and checks a template document. The document must
// contain properties.data.properties.project and list "project" in
// properties.data.required.
func ParseTemplate(data []byte) (*Template, error) {
	v, err := decodeTree(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformedTemplate)
	}

	dataNode, ok := object(root, "properties", "data")
	if !ok {
		return nil, fmt.Errorf("%w: missing properties.data", ErrMalformedTemplate)
	}
	if _, ok := object(dataNode, "properties", archetypeKey); !ok {
		return nil, fmt.Errorf("%w: missing properties.data.properties.%s", ErrMalformedTemplate, archetypeKey)
	}
	required, _ := dataNode["required"].([]any)
	found := false
	for _, r := range required {
		if r == archetypeKey {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: properties.data.required must list %q", ErrMalformedTemplate, archetypeKey)
	}

	return &Template{root: root}, nil
}

// clone returns a private deep copy of the template document.
func (t *Template) clone() map[string]any {
	return deepClone(t.root).(map[string]any)
}
