package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// LoadConfig loads configuration from the embedded YAML file and environment
// variables. It is expected to be called once during application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	yamlConfig, err := decodeYAML(embeddedConfig)
	if err != nil {
		return nil, err
	}
	mergeConfig(cfg, yamlConfig)

	applyEnvOverrides(cfg)
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// NewConfigProvider is the Fx provider for *Config. It also applies the
// configured log level so that later providers log at the right verbosity.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Emissions.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Emissions.System.Logging.Level)
	return cfg, nil
}

// decodeYAML unmarshals the embedded file into a generic map and decodes that
// into the typed Config via the mapstructure tags. Unknown keys are ignored;
// type mismatches surface as decode errors instead of zero values.
func decodeYAML(embeddedConfig EmbeddedConfig) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(embeddedConfig, &raw); err != nil {
		return nil, exception.NewQueryError(moduleName, "failed to unmarshal embedded config", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, exception.NewQueryError(moduleName, "failed to build config decoder", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, exception.NewQueryError(moduleName, "failed to decode embedded config", err)
	}
	return &cfg, nil
}

// mergeConfig performs a merge from sourceConfig into destConfig. Non-zero
// values in sourceConfig overwrite the defaults in destConfig.
func mergeConfig(dest, source *Config) {
	d, s := &dest.Emissions, &source.Emissions

	if s.System.Timezone != "" {
		d.System.Timezone = s.System.Timezone
	}
	if s.System.Logging.Level != "" {
		d.System.Logging.Level = s.System.Logging.Level
	}

	if s.Warehouse.Driver != "" {
		d.Warehouse.Driver = s.Warehouse.Driver
	}
	if s.Warehouse.Host != "" {
		d.Warehouse.Host = s.Warehouse.Host
	}
	if s.Warehouse.Port != 0 {
		d.Warehouse.Port = s.Warehouse.Port
	}
	if s.Warehouse.Database != "" {
		d.Warehouse.Database = s.Warehouse.Database
	}
	if s.Warehouse.Schema != "" {
		d.Warehouse.Schema = s.Warehouse.Schema
	}
	if s.Warehouse.Sslmode != "" {
		d.Warehouse.Sslmode = s.Warehouse.Sslmode
	}
	if s.Warehouse.Path != "" {
		d.Warehouse.Path = s.Warehouse.Path
	}

	if s.Cache.TTLHours != 0 {
		d.Cache.TTLHours = s.Cache.TTLHours
	}
	if s.Upload.TempDir != "" {
		d.Upload.TempDir = s.Upload.TempDir
	}

	if s.Storage.Type != "" {
		d.Storage.Type = s.Storage.Type
	}
	if s.Storage.BucketName != "" {
		d.Storage.BucketName = s.Storage.BucketName
	}
	if s.Storage.CredentialsFile != "" {
		d.Storage.CredentialsFile = s.Storage.CredentialsFile
	}
	if s.Storage.BaseDir != "" {
		d.Storage.BaseDir = s.Storage.BaseDir
	}

	if s.Export.OutputBaseDir != "" {
		d.Export.OutputBaseDir = s.Export.OutputBaseDir
	}
}

// applyEnvOverrides overlays environment variables onto the configuration.
// Credentials come exclusively from here.
func applyEnvOverrides(cfg *Config) {
	e := &cfg.Emissions

	setString(&e.System.Timezone, "EMISSIONS_TIMEZONE")
	setString(&e.System.Logging.Level, "EMISSIONS_LOG_LEVEL")

	setString(&e.Warehouse.Driver, "EMISSIONS_WAREHOUSE_DRIVER")
	setString(&e.Warehouse.Host, "EMISSIONS_WAREHOUSE_HOST")
	setInt(&e.Warehouse.Port, "EMISSIONS_WAREHOUSE_PORT")
	setString(&e.Warehouse.Database, "EMISSIONS_WAREHOUSE_DATABASE")
	setString(&e.Warehouse.Schema, "EMISSIONS_WAREHOUSE_SCHEMA")
	setString(&e.Warehouse.Sslmode, "EMISSIONS_WAREHOUSE_SSLMODE")
	setString(&e.Warehouse.Path, "EMISSIONS_WAREHOUSE_PATH")
	setString(&e.Warehouse.User, "EMISSIONS_WAREHOUSE_USER")
	setString(&e.Warehouse.Password, "EMISSIONS_WAREHOUSE_PASSWORD")

	setInt(&e.Cache.TTLHours, "EMISSIONS_CACHE_TTL_HOURS")
	setString(&e.Upload.TempDir, "EMISSIONS_UPLOAD_TEMP_DIR")

	setString(&e.Storage.Type, "EMISSIONS_STORAGE_TYPE")
	setString(&e.Storage.BucketName, "EMISSIONS_STORAGE_BUCKET")
	setString(&e.Storage.CredentialsFile, "EMISSIONS_STORAGE_CREDENTIALS_FILE")
	setString(&e.Storage.BaseDir, "EMISSIONS_STORAGE_BASE_DIR")

	setString(&e.Export.OutputBaseDir, "EMISSIONS_EXPORT_OUTPUT_BASE_DIR")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("Environment variable %s=%q is not an integer, ignoring.", key, v)
		return
	}
	*dst = n
}
