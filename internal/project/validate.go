package project

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
	"gopkg.in/yaml.v3"
)

// Validate checks a raw project configuration for internal consistency.
// It performs declarative validation only and never mutates cfg. The first
// failing rule is returned; callers match it with errors.Is.
func Validate(cfg *RawConfig) error {
	if cfg == nil {
		return fmt.Errorf("project config is nil")
	}

	usage := &cfg.Schema.Usage
	custom := false

	// ------------------------------------------------------------
	// SCHEMA USAGE
	// ------------------------------------------------------------

	if present(usage) {
		switch {
		case isFalse(usage):
		case isMapping(usage):
			custom = true
			if !present(&cfg.Mapping) {
				return ErrMissingMapping
			}
			if !isMapping(&cfg.Mapping) {
				return fmt.Errorf("%w: mapping must associate usage keys with storage columns", ErrInvalidUsageField)
			}
			if !sameKeys(keys(usage), keys(&cfg.Mapping)) {
				return fmt.Errorf(
					"%w: usage=%s mapping=%s",
					ErrUsageMappingMismatch,
					strings.Join(keys(usage), ","),
					strings.Join(keys(&cfg.Mapping), ","),
				)
			}
		default:
			return ErrInvalidUsageType
		}
	}

	// ------------------------------------------------------------
	// SCHEMA PLUGINS
	// ------------------------------------------------------------

	if present(&cfg.Schema.Plugins) && !isFalse(&cfg.Schema.Plugins) {
		return ErrInvalidPluginsValue
	}

	// ------------------------------------------------------------
	// PROJECT URL
	// ------------------------------------------------------------

	if raw := strings.TrimSpace(cfg.URL); raw != "" {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	}

	if !custom {
		return nil
	}

	// ------------------------------------------------------------
	// CUSTOM USAGE FIELDS AND STORAGE COLUMNS
	// ------------------------------------------------------------

	if _, err := customFields(usage); err != nil {
		return err
	}
	if _, err := customMapping(&cfg.Mapping); err != nil {
		return err
	}

	return nil
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func customFields(usage *yaml.Node) ([]UsageField, error) {
	var fields []UsageField
	for _, p := range pairs(usage) {
		key := p[0].Value
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: empty usage key", ErrInvalidUsageField)
		}
		if p[1] == nil || p[1].Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %q must be a mapping with type and required", ErrInvalidUsageField, key)
		}
		var e usageEntry
		if err := p[1].Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidUsageField, key, err)
		}
		if strings.TrimSpace(e.Type) == "" {
			return nil, fmt.Errorf("%w: %q has no type", ErrInvalidUsageField, key)
		}
		fields = append(fields, UsageField{Key: key, Type: e.Type, Required: e.Required})
	}
	return fields, nil
}

func customMapping(mapping *yaml.Node) (map[string]string, error) {
	out := make(map[string]string)
	owner := make(map[string]string)
	for _, p := range pairs(mapping) {
		local := p[0].Value
		if p[1] == nil || p[1].Kind != yaml.ScalarNode || strings.TrimSpace(p[1].Value) == "" {
			return nil, fmt.Errorf("%w: mapping for %q must be a column name", ErrInvalidUsageField, local)
		}
		column := p[1].Value

		if record.IsFixed(column) {
			return nil, fmt.Errorf("%w: %q maps to fixed column %q", ErrColumnCollision, local, column)
		}
		if prev, exists := owner[column]; exists {
			return nil, fmt.Errorf("%w: column %q used by %q and %q", ErrColumnCollision, column, prev, local)
		}

		owner[column] = local
		out[local] = column
	}
	return out, nil
}
