// Package config provides structures and utilities for managing the emissions
// data core configuration. Settings come from an embedded YAML file merged
// over compiled-in defaults, with environment variables taking highest
// precedence. Warehouse credentials are never read from YAML.
package config

// EmbeddedConfig holds the raw bytes of the configuration file, typically
// passed from main.go via go:embed.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level" mapstructure:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the display timezone the aligned time axis is converted to
	// (source timestamps are stored UTC). Defaults to "US/Pacific".
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// WarehouseConfig holds warehouse connection settings. Credentials (user,
// password) are supplied via environment variables only.
type WarehouseConfig struct {
	// Driver selects the SQL driver: "postgres", "mysql" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Host is the warehouse host address.
	Host string `yaml:"host" mapstructure:"host"`
	// Port is the warehouse port number.
	Port int `yaml:"port" mapstructure:"port"`
	// Database is the warehouse database name.
	Database string `yaml:"database" mapstructure:"database"`
	// Schema is the schema holding the emissions tables.
	Schema string `yaml:"schema" mapstructure:"schema"`
	// Sslmode is the SSL mode for postgres connections.
	Sslmode string `yaml:"sslmode" mapstructure:"sslmode"`
	// Path is the database file path for sqlite connections.
	Path string `yaml:"path" mapstructure:"path"`
	// User is the warehouse user, from EMISSIONS_WAREHOUSE_USER.
	User string `yaml:"-" mapstructure:"-"`
	// Password is the warehouse password, from EMISSIONS_WAREHOUSE_PASSWORD.
	Password string `yaml:"-" mapstructure:"-"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	// TTLHours is the time-to-live for cached query results. The original
	// presentation layer cached for 24 hours.
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// UploadConfig holds bulk loader settings.
type UploadConfig struct {
	// TempDir is the directory for staged CSV temp files. Empty means the
	// system temp directory.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// StorageConfig holds configuration for the archive storage backend.
type StorageConfig struct {
	// Type selects the backend: "local" or "gcs".
	Type string `yaml:"type" mapstructure:"type"`
	// BucketName is the GCS bucket for the gcs backend.
	BucketName string `yaml:"bucket_name" mapstructure:"bucket_name"`
	// CredentialsFile is an optional service-account key path for GCS.
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	// BaseDir is the root directory for the local backend.
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}

// ExportConfig holds archive exporter settings.
type ExportConfig struct {
	// OutputBaseDir is the prefix under which Parquet archives are written.
	OutputBaseDir string `yaml:"output_base_dir" mapstructure:"output_base_dir"`
}

// EmissionsConfig holds all configuration under the "emissions" top-level key.
type EmissionsConfig struct {
	System    SystemConfig    `yaml:"system" mapstructure:"system"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
}

// Config is the root structure for the application configuration.
type Config struct {
	Emissions EmissionsConfig `yaml:"emissions" mapstructure:"emissions"`
	// EmbeddedConfig holds the raw embedded bytes, not parsed from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-" mapstructure:"-"`
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Emissions: EmissionsConfig{
			System: SystemConfig{
				Timezone: "US/Pacific",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Warehouse: WarehouseConfig{
				Driver:  "postgres",
				Host:    "localhost",
				Port:    5432,
				Sslmode: "disable",
			},
			Cache:   CacheConfig{TTLHours: 24},
			Storage: StorageConfig{Type: "local", BaseDir: "./archive"},
			Export:  ExportConfig{OutputBaseDir: "aggregated"},
		},
	}
}
