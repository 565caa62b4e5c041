package config

// Config represents the complete qdp configuration
type Config struct {
	BaseDir string        `yaml:"-" toml:"-"` // Directory containing config file, for resolving relative paths
	Read    ReadConfig    `yaml:"read" toml:"read"`
	Write   WriteConfig   `yaml:"write" toml:"write"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Export  ExportConfig  `yaml:"export" toml:"export"`
}

// ReadConfig holds reader defaults
type ReadConfig struct {
	Names     []string `yaml:"names" toml:"names"`         // Base column names, in order
	Delimiter string   `yaml:"delimiter" toml:"delimiter"` // auto, space or comma
	TableID   *int     `yaml:"table_id" toml:"table_id"`   // Table to select when one is needed (nil: all, or the first with a warning)
}

// WriteConfig holds writer defaults
type WriteConfig struct {
	Delimiter string `yaml:"delimiter" toml:"delimiter"` // space or comma
	Terr      []int  `yaml:"terr" toml:"terr"`           // Base columns with asymmetric errors (empty: derive from names)
	Serr      []int  `yaml:"serr" toml:"serr"`           // Base columns with symmetric errors
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json or text
	Output string `yaml:"output" toml:"output"` // stderr, stdout, or file path
	Quiet  bool   `yaml:"quiet" toml:"quiet"`   // suppress diagnostics
}

// ExportConfig holds the SQL export target
type ExportConfig struct {
	Driver      string `yaml:"driver" toml:"driver"`             // sqlite, postgres or mysql
	DSN         string `yaml:"dsn" toml:"dsn"`                   // Driver data source; a relative sqlite path resolves against the config dir
	TablePrefix string `yaml:"table_prefix" toml:"table_prefix"` // Prefix for exported table names
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Read: ReadConfig{
			Delimiter: "auto",
		},
		Write: WriteConfig{
			Delimiter: "space",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Export: ExportConfig{
			Driver:      "sqlite",
			DSN:         "qdp.db",
			TablePrefix: "qdp_",
		},
	}
}
