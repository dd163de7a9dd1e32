// Package record describes the flat row produced from a telemetry submission
// and the stable column names it is stored under.
package record

// Record maps storage column names to primitive values (string, int64,
// float64, bool or nil).
type Record map[string]any

// Kind is the storage type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
	KindText
)

// Column describes one storage column. Length is the maximum number of
// characters for KindString columns and zero otherwise.
type Column struct {
	Name   string
	Kind   Kind
	Length int
}

const (
	ColUUID                 = "glpi_uuid"
	ColVersion              = "glpi_version"
	ColDefaultLanguage      = "glpi_default_language"
	ColDBEngine             = "db_engine"
	ColDBVersion            = "db_version"
	ColDBSize               = "db_size"
	ColDBLogSize            = "db_log_size"
	ColDBSQLMode            = "db_sql_mode"
	ColWebEngine            = "web_engine"
	ColWebVersion           = "web_version"
	ColPHPVersion           = "php_version"
	ColPHPModules           = "php_modules"
	ColPHPMaxExecutionTime  = "php_config_max_execution_time"
	ColPHPMemoryLimit       = "php_config_memory_limit"
	ColPHPPostMaxSize       = "php_config_post_max_size"
	ColPHPSafeMode          = "php_config_safe_mode"
	ColPHPSession           = "php_config_session"
	ColPHPUploadMaxFilesize = "php_config_upload_max_filesize"
	ColOSFamily             = "os_family"
	ColOSDistribution       = "os_distribution"
	ColOSVersion            = "os_version"
	ColAvgEntities          = "glpi_avg_entities"
	ColAvgComputers         = "glpi_avg_computers"
	ColAvgNetworkEquipments = "glpi_avg_networkequipments"
	ColAvgTickets           = "glpi_avg_tickets"
	ColAvgProblems          = "glpi_avg_problems"
	ColAvgChanges           = "glpi_avg_changes"
	ColAvgProjects          = "glpi_avg_projects"
	ColAvgUsers             = "glpi_avg_users"
	ColAvgGroups            = "glpi_avg_groups"
	ColLDAPEnabled          = "glpi_ldap_enabled"
	ColMailCollectorEnabled = "glpi_mailcollector_enabled"
	CustomUsageLength       = 25
)

var fixedColumns = []Column{
	{Name: ColUUID, Kind: KindString, Length: 41},
	{Name: ColVersion, Kind: KindString, Length: 25},
	{Name: ColDefaultLanguage, Kind: KindString, Length: 10},
	{Name: ColDBEngine, Kind: KindString, Length: 50},
	{Name: ColDBVersion, Kind: KindString, Length: 50},
	{Name: ColDBSize, Kind: KindInteger},
	{Name: ColDBLogSize, Kind: KindInteger},
	{Name: ColDBSQLMode, Kind: KindText},
	{Name: ColWebEngine, Kind: KindString, Length: 50},
	{Name: ColWebVersion, Kind: KindString, Length: 50},
	{Name: ColPHPVersion, Kind: KindString, Length: 50},
	{Name: ColPHPModules, Kind: KindText},
	{Name: ColPHPMaxExecutionTime, Kind: KindInteger},
	{Name: ColPHPMemoryLimit, Kind: KindString, Length: 10},
	{Name: ColPHPPostMaxSize, Kind: KindString, Length: 10},
	{Name: ColPHPSafeMode, Kind: KindBoolean},
	{Name: ColPHPSession, Kind: KindText},
	{Name: ColPHPUploadMaxFilesize, Kind: KindString, Length: 10},
	{Name: ColOSFamily, Kind: KindString, Length: 50},
	{Name: ColOSDistribution, Kind: KindString, Length: 50},
	{Name: ColOSVersion, Kind: KindString, Length: 50},
}

var defaultUsageColumns = []Column{
	{Name: ColAvgEntities, Kind: KindString, Length: 50},
	{Name: ColAvgComputers, Kind: KindString, Length: 50},
	{Name: ColAvgNetworkEquipments, Kind: KindString, Length: 50},
	{Name: ColAvgTickets, Kind: KindString, Length: 25},
	{Name: ColAvgProblems, Kind: KindString, Length: 25},
	{Name: ColAvgChanges, Kind: KindString, Length: 25},
	{Name: ColAvgProjects, Kind: KindString, Length: 25},
	{Name: ColAvgUsers, Kind: KindString, Length: 25},
	{Name: ColAvgGroups, Kind: KindString, Length: 25},
	{Name: ColLDAPEnabled, Kind: KindBoolean},
	{Name: ColMailCollectorEnabled, Kind: KindBoolean},
}

// FixedColumns returns the columns every record carries, in storage order.
func FixedColumns() []Column {
	out := make([]Column, len(fixedColumns))
	copy(out, fixedColumns)
	return out
}

// DefaultUsageColumns returns the usage columns filled when a project keeps
// the template's usage block.
func DefaultUsageColumns() []Column {
	out := make([]Column, len(defaultUsageColumns))
	copy(out, defaultUsageColumns)
	return out
}

// IsFixed reports whether name is one of the fixed record columns.
func IsFixed(name string) bool {
	for _, c := range fixedColumns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// KindForUsageType maps a JSON Schema primitive type name to a column kind.
func KindForUsageType(typ string) Kind {
	switch typ {
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	default:
		return KindString
	}
}
