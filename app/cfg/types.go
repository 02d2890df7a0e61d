package cfg

import "time"

type Cfg struct {
	// Upstream configuration
	AviationAPIKey  string
	AviationBaseURL string
	DepIATA         string
	FlightStatus    string
	PageSize        int
	RequestTimeout  time.Duration

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// Additional sinks
	OutputFile         string
	OutputFormat       string
	NATSURL            string
	NATSSubject        string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string

	// Application configuration
	RunInterval  time.Duration
	Once         bool
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverNone     = "none"

	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

func (c *Cfg) DatabaseEnabled() bool {
	return c.DBDriver != DBDriverNone && c.DBDriver != ""
}
