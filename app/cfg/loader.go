package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Upstream configuration
	AviationAPIKey  string        `long:"api-access-key" env:"AVIATION_API_KEY" description:"aviationstack access key (required)" required:"true"`
	AviationBaseURL string        `long:"api-base-url" env:"AVIATION_BASE_URL" default:"https://api.aviationstack.com/v1" description:"aviationstack API base URL"`
	DepIATA         string        `long:"dep-iata" env:"DEP_IATA" default:"AUS" description:"Origin airport IATA code"`
	FlightStatus    string        `long:"flight-status" env:"FLIGHT_STATUS" default:"landed" description:"Upstream flight status filter"`
	PageSize        int           `long:"page-size" env:"PAGE_SIZE" default:"100" description:"Records per upstream page (free plan maximum is 100)"`
	RequestTimeout  time.Duration `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30s" description:"Timeout for a single upstream request"`

	// Database configuration
	DBDriver   string `long:"db-driver" env:"DB_DRIVER" default:"postgres" choice:"postgres" choice:"sqlite" choice:"none" description:"Relational sink driver"`
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     int    `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"flights" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"flights" description:"Database name"`
	SQLitePath string `long:"sqlite-path" env:"SQLITE_PATH" default:"./flights.db" description:"SQLite database file"`

	// Additional sinks
	OutputFile         string `long:"output-file" env:"OUTPUT_FILE" description:"Write each run's batch to this file, overwriting it"`
	OutputFormat       string `long:"output-format" env:"OUTPUT_FORMAT" default:"json" choice:"json" choice:"yaml" description:"Output file format"`
	NATSURL            string `long:"nats-url" env:"NATS_URL" description:"Publish each run's batch to NATS (optional)"`
	NATSSubject        string `long:"nats-subject" env:"NATS_SUBJECT" default:"flights.arrivals" description:"NATS subject for published batches"`
	ClickHouseAddr     string `long:"clickhouse-addr" env:"CLICKHOUSE_ADDR" description:"ClickHouse host:port for the analytics sink (optional)"`
	ClickHouseDatabase string `long:"clickhouse-database" env:"CLICKHOUSE_DATABASE" default:"flights" description:"ClickHouse database"`
	ClickHouseUser     string `long:"clickhouse-user" env:"CLICKHOUSE_USER" default:"default" description:"ClickHouse user"`
	ClickHousePassword string `long:"clickhouse-password" env:"CLICKHOUSE_PASSWORD" description:"ClickHouse password"`

	// Application configuration
	RunInterval  time.Duration `long:"run-interval" env:"RUN_INTERVAL" default:"24h" description:"Interval between pipeline runs"`
	Once         bool          `long:"once" env:"RUN_ONCE" description:"Run the pipeline once and exit"`
	Port         string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string        `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://flights.example.com)"`
	APIAccessKey string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Flight Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Chicago)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// defaultOnceOutputFile is written by --once runs with no other sink.
const defaultOnceOutputFile = "response.json"

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		AviationAPIKey:     raw.AviationAPIKey,
		AviationBaseURL:    raw.AviationBaseURL,
		DepIATA:            raw.DepIATA,
		FlightStatus:       raw.FlightStatus,
		PageSize:           raw.PageSize,
		RequestTimeout:     raw.RequestTimeout,
		DBDriver:           raw.DBDriver,
		DBHost:             raw.DBHost,
		DBPort:             raw.DBPort,
		DBUser:             raw.DBUser,
		DBPassword:         raw.DBPassword,
		DBName:             raw.DBName,
		SQLitePath:         raw.SQLitePath,
		OutputFile:         raw.OutputFile,
		OutputFormat:       raw.OutputFormat,
		NATSURL:            raw.NATSURL,
		NATSSubject:        raw.NATSSubject,
		ClickHouseAddr:     raw.ClickHouseAddr,
		ClickHouseDatabase: raw.ClickHouseDatabase,
		ClickHouseUser:     raw.ClickHouseUser,
		ClickHousePassword: raw.ClickHousePassword,
		RunInterval:        raw.RunInterval,
		Once:               raw.Once,
		Port:               raw.Port,
		BaseUrl:            raw.BaseUrl,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if cfg.Once && !cfg.DatabaseEnabled() && cfg.OutputFile == "" {
		cfg.OutputFile = defaultOnceOutputFile
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("%w: page size must be between 1 and 100, got %d", ErrInvalidConfig, cfg.PageSize)
	}
	if len(cfg.DepIATA) != 3 {
		return fmt.Errorf("%w: departure IATA code must have 3 letters, got %q", ErrInvalidConfig, cfg.DepIATA)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if !cfg.Once && cfg.RunInterval <= 0 {
		return fmt.Errorf("%w: run interval must be positive", ErrInvalidConfig)
	}
	if cfg.DBDriver == DBDriverPostgres && cfg.DBPassword == "" {
		return fmt.Errorf("%w: database password is required for the postgres driver", ErrInvalidConfig)
	}
	if !cfg.DatabaseEnabled() && cfg.OutputFile == "" && cfg.NATSURL == "" && cfg.ClickHouseAddr == "" {
		return fmt.Errorf("%w: at least one sink must be configured", ErrInvalidConfig)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
