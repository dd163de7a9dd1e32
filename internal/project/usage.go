package project

// UsageMode selects how a project's usage block is treated.
type UsageMode int

const (
	// UsageDefault keeps the template's usage block.
	UsageDefault UsageMode = iota
	// UsageDisabled removes the usage block entirely.
	UsageDisabled
	// UsageCustom replaces the usage block with configured fields.
	UsageCustom
)

func (m UsageMode) String() string {
	switch m {
	case UsageDefault:
		return "default"
	case UsageDisabled:
		return "disabled"
	case UsageCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// UsageField is one configured usage key.
type UsageField struct {
	Key      string
	Type     string
	Required bool
}

// SchemaUsage is the usage configuration of a project. Fields is only
// populated, in configuration order, when Mode is UsageCustom.
type SchemaUsage struct {
	mode   UsageMode
	fields []UsageField
}

func DefaultUsage() SchemaUsage {
	return SchemaUsage{mode: UsageDefault}
}

func DisabledUsage() SchemaUsage {
	return SchemaUsage{mode: UsageDisabled}
}

func CustomUsage(fields ...UsageField) SchemaUsage {
	cp := make([]UsageField, len(fields))
	copy(cp, fields)
	return SchemaUsage{mode: UsageCustom, fields: cp}
}

func (u SchemaUsage) Mode() UsageMode {
	return u.mode
}

// Fields returns a copy of the custom usage fields.
func (u SchemaUsage) Fields() []UsageField {
	if u.mode != UsageCustom {
		return nil
	}
	cp := make([]UsageField, len(u.fields))
	copy(cp, u.fields)
	return cp
}

// Field looks up a custom usage field by key.
func (u SchemaUsage) Field(key string) (UsageField, bool) {
	for _, f := range u.fields {
		if f.Key == key {
			return f, true
		}
	}
	return UsageField{}, false
}
