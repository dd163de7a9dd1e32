// Package mapper flattens schema-valid telemetry submissions into storage
// records.
package mapper

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GoSim-25-26J-441/telemetry-backend/internal/project"
	"github.com/GoSim-25-26J-441/telemetry-backend/internal/telemetry/record"
)

// source locates a fixed column in the submission. The first path element
// "$slug" is replaced with the project slug.
type source struct {
	column record.Column
	path   []string
	list   bool
}

const slugPlaceholder = "$slug"

var fixedSources = map[string][]string{
	record.ColUUID:                 {slugPlaceholder, "uuid"},
	record.ColVersion:              {slugPlaceholder, "version"},
	record.ColDefaultLanguage:      {slugPlaceholder, "default_language"},
	record.ColDBEngine:             {"system", "db", "engine"},
	record.ColDBVersion:            {"system", "db", "version"},
	record.ColDBSize:               {"system", "db", "size"},
	record.ColDBLogSize:            {"system", "db", "log_size"},
	record.ColDBSQLMode:            {"system", "db", "sql_mode"},
	record.ColWebEngine:            {"system", "web_server", "engine"},
	record.ColWebVersion:           {"system", "web_server", "version"},
	record.ColPHPVersion:           {"system", "php", "version"},
	record.ColPHPModules:           {"system", "php", "modules"},
	record.ColPHPMaxExecutionTime:  {"system", "php", "setup", "max_execution_time"},
	record.ColPHPMemoryLimit:       {"system", "php", "setup", "memory_limit"},
	record.ColPHPPostMaxSize:       {"system", "php", "setup", "post_max_size"},
	record.ColPHPSafeMode:          {"system", "php", "setup", "safe_mode"},
	record.ColPHPSession:           {"system", "php", "setup", "session"},
	record.ColPHPUploadMaxFilesize: {"system", "php", "setup", "upload_max_filesize"},
	record.ColOSFamily:             {"system", "os", "family"},
	record.ColOSDistribution:       {"system", "os", "distribution"},
	record.ColOSVersion:            {"system", "os", "version"},
}

var defaultUsageSources = map[string]string{
	record.ColAvgEntities:          "avg_entities",
	record.ColAvgComputers:         "avg_computers",
	record.ColAvgNetworkEquipments: "avg_networkequipments",
	record.ColAvgTickets:           "avg_tickets",
	record.ColAvgProblems:          "avg_problems",
	record.ColAvgChanges:           "avg_changes",
	record.ColAvgProjects:          "avg_projects",
	record.ColAvgUsers:             "avg_users",
	record.ColAvgGroups:            "avg_groups",
	record.ColLDAPEnabled:          "ldap_enabled",
	record.ColMailCollectorEnabled: "mailcollector_enabled",
}

// Mapper is safe for concurrent use.
type Mapper struct {
	project *project.Project
	fixed   []source
	usage   []source
}

func New(p *project.Project) *Mapper {
	m := &Mapper{project: p}

	for _, col := range record.FixedColumns() {
		path := append([]string(nil), fixedSources[col.Name]...)
		if path[0] == slugPlaceholder {
			path[0] = p.Slug()
		}
		m.fixed = append(m.fixed, source{
			column: col,
			path:   path,
			list:   col.Name == record.ColPHPModules,
		})
	}

	if p.Usage().Mode() == project.UsageDefault {
		for _, col := range record.DefaultUsageColumns() {
			m.usage = append(m.usage, source{
				column: col,
				path:   []string{p.Slug(), "usage", defaultUsageSources[col.Name]},
			})
		}
	}

	return m
}

// Map converts the data object of a validated submission into a record.
// A field the record needs but the submission lacks fails the whole
// mapping with ErrMissingField.
func (m *Mapper) Map(data map[string]any) (record.Record, error) {
	rec := make(record.Record, len(m.fixed)+len(m.usage))

	for _, src := range m.fixed {
		v, err := m.value(data, src)
		if err != nil {
			return nil, err
		}
		rec[src.column.Name] = v
	}

	usage := m.project.Usage()
	switch usage.Mode() {
	case project.UsageCustom:
		if err := m.mapCustomUsage(data, usage, rec); err != nil {
			return nil, err
		}
	case project.UsageDefault:
		for _, src := range m.usage {
			v, err := m.value(data, src)
			if err != nil {
				return nil, err
			}
			rec[src.column.Name] = v
		}
	case project.UsageDisabled:
	default:
		return nil, fmt.Errorf("unknown usage mode %v", usage.Mode())
	}

	return rec, nil
}

func (m *Mapper) value(data map[string]any, src source) (any, error) {
	raw, err := lookup(data, src.path...)
	if err != nil {
		return nil, err
	}
	if src.list {
		items, err := asList(strings.Join(src.path, "."), raw)
		if err != nil {
			return nil, err
		}
		return strings.Join(items, ","), nil
	}
	return m.coerce(src.column, raw), nil
}

func (m *Mapper) coerce(col record.Column, raw any) any {
	switch col.Kind {
	case record.KindInteger:
		return asInt(raw)
	case record.KindNumber:
		return asFloat(raw)
	case record.KindBoolean:
		return asBool(raw)
	case record.KindText:
		return asString(raw)
	default:
		return m.truncate(asString(raw), col.Length)
	}
}

func (m *Mapper) mapCustomUsage(data map[string]any, usage project.SchemaUsage, rec record.Record) error {
	slug := m.project.Slug()
	mapping := m.project.Mapping()
	// Configured order keeps the reported missing key stable.
	for _, field := range usage.Fields() {
		column := mapping[field.Key]
		raw, err := lookup(data, slug, "usage", field.Key)
		if err != nil {
			if !field.Required && isMissing(err) {
				rec[column] = nil
				continue
			}
			return err
		}
		col := record.Column{
			Name:   column,
			Kind:   record.KindForUsageType(field.Type),
			Length: record.CustomUsageLength,
		}
		rec[column] = m.coerce(col, raw)
	}
	return nil
}

// truncate cuts s to limit characters, warning once when it had to.
func (m *Mapper) truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	m.project.Logger().Warn(fmt.Sprintf("string exceeds length %d", limit), "limit", limit, "value", s)

	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
