package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "FMR"

// Supported database drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	ReportTimeout   time.Duration `yaml:"report_timeout" envconfig:"REPORT_TIMEOUT" default:"90s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string          `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool              `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig   `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// APIKeys maps key to client name. Empty disables key checks on /api/reports.
	APIKeys        map[string]string `yaml:"api_keys" envconfig:"API_KEYS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"10"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"20"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DatabaseConfig describes the measurement data source. DSN wins when set;
// otherwise a sqlserver DSN is assembled from the discrete fields.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"DRIVER" default:"sqlserver"`
	DSN             string        `yaml:"dsn" envconfig:"DSN"`
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"1433"`
	Name            string        `yaml:"name" envconfig:"NAME"`
	User            string        `yaml:"user" envconfig:"USER"`
	Password        string        `yaml:"password" envconfig:"PASSWORD"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"4"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	QueryTimeout    time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT" default:"60s"`
}

// ReportConfig contains report artifact settings
type ReportConfig struct {
	SheetName      string `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Machine Data"`
	FilenamePrefix string `yaml:"filename_prefix" envconfig:"FILENAME_PREFIX" default:"Machine_Data"`
	DefaultFormat  string `yaml:"default_format" envconfig:"DEFAULT_FORMAT" default:"xlsx"`
	CSVBOM         bool   `yaml:"csv_bom" envconfig:"CSV_BOM" default:"true"`
}

// TelemetryConfig selects the OpenTelemetry exporters. Spans are created even
// with TraceExporter "none" so log lines still carry a trace_id.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit YAML file. An empty path means env only.
func LoadFile(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. A field explicitly set in
// the environment wins; otherwise a non-zero file value replaces the default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	setInt := func(dst *int, file int, env string) {
		if !envSet(env) && file != 0 {
			*dst = file
		}
	}
	setDur := func(dst *time.Duration, file time.Duration, env string) {
		if !envSet(env) && file != 0 {
			*dst = file
		}
	}
	setStr := func(dst *string, file string, env string) {
		if !envSet(env) && file != "" {
			*dst = file
		}
	}

	// Server
	setInt(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	setDur(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	setDur(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	setDur(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	setDur(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	setDur(&envConfig.Server.ReportTimeout, fileConfig.Server.ReportTimeout, "SERVER_REPORT_TIMEOUT")

	// Security
	if !envSet("SECURITY_ALLOWED_ORIGINS") && len(fileConfig.Security.AllowedOrigins) > 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Security.RateLimit.RPS != 0 && !envSet("SECURITY_RATE_LIMIT_RPS") {
		envConfig.Security.RateLimit.RPS = fileConfig.Security.RateLimit.RPS
	}
	setInt(&envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")
	if !envSet("SECURITY_API_KEYS") && len(fileConfig.Security.APIKeys) > 0 {
		envConfig.Security.APIKeys = fileConfig.Security.APIKeys
	}

	// Logging
	setStr(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	setStr(&envConfig.Logging.Format, fileConfig.Logging.Format, "LOGGING_FORMAT")
	setStr(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	setStr(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	// Database
	setStr(&envConfig.Database.Driver, fileConfig.Database.Driver, "DATABASE_DRIVER")
	setStr(&envConfig.Database.DSN, fileConfig.Database.DSN, "DATABASE_DSN")
	setStr(&envConfig.Database.Host, fileConfig.Database.Host, "DATABASE_HOST")
	setInt(&envConfig.Database.Port, fileConfig.Database.Port, "DATABASE_PORT")
	setStr(&envConfig.Database.Name, fileConfig.Database.Name, "DATABASE_NAME")
	setStr(&envConfig.Database.User, fileConfig.Database.User, "DATABASE_USER")
	setStr(&envConfig.Database.Password, fileConfig.Database.Password, "DATABASE_PASSWORD")
	setInt(&envConfig.Database.MaxOpenConns, fileConfig.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS")
	setDur(&envConfig.Database.ConnMaxLifetime, fileConfig.Database.ConnMaxLifetime, "DATABASE_CONN_MAX_LIFETIME")
	setDur(&envConfig.Database.QueryTimeout, fileConfig.Database.QueryTimeout, "DATABASE_QUERY_TIMEOUT")

	// Report
	setStr(&envConfig.Report.SheetName, fileConfig.Report.SheetName, "REPORT_SHEET_NAME")
	setStr(&envConfig.Report.FilenamePrefix, fileConfig.Report.FilenamePrefix, "REPORT_FILENAME_PREFIX")
	setStr(&envConfig.Report.DefaultFormat, fileConfig.Report.DefaultFormat, "REPORT_DEFAULT_FORMAT")

	// Telemetry
	setStr(&envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")
	setStr(&envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	setStr(&envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter, "TELEMETRY_METRIC_EXPORTER")
	if !envSet("TELEMETRY_SAMPLE_RATIO") && fileConfig.Telemetry.SampleRatio != 0 {
		envConfig.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}

	return envConfig
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + name)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.ReportTimeout <= 0 {
		return fmt.Errorf("report timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Logging.Format != "text" {
		c.Logging.Format = DefaultLogFormat
	}

	switch c.Logging.Output {
	case "console", "stdout", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	switch c.Database.Driver {
	case DriverSQLServer, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database query timeout must be positive")
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "none":
	default:
		return fmt.Errorf("unsupported metric exporter: %q", c.Telemetry.MetricExporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]")
	}

	if c.Report.SheetName == "" {
		c.Report.SheetName = "Machine Data"
	}
	if c.Report.FilenamePrefix == "" {
		c.Report.FilenamePrefix = "Machine_Data"
	}

	return nil
}

// ConnectionString resolves the DSN handed to sql.Open.
func (d DatabaseConfig) ConnectionString() (string, error) {
	if d.DSN != "" {
		return d.DSN, nil
	}

	if d.Driver != DriverSQLServer || d.Host == "" {
		return "", fmt.Errorf("database DSN is not configured for driver %q", d.Driver)
	}

	q := url.Values{}
	if d.Name != "" {
		q.Set("database", d.Name)
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     d.Host,
		RawQuery: q.Encode(),
	}
	if d.Port != 0 {
		u.Host = d.Host + ":" + strconv.Itoa(d.Port)
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String(), nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			ReportTimeout:   DefaultReportTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLServer,
			Port:            1433,
			MaxOpenConns:    4,
			ConnMaxLifetime: 5 * time.Minute,
			QueryTimeout:    DefaultQueryTimeout,
		},
		Report: ReportConfig{
			SheetName:      DefaultSheetName,
			FilenamePrefix: DefaultFilenamePrefix,
			DefaultFormat:  "xlsx",
			CSVBOM:         true,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}
