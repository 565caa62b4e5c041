package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sambeau/qdp/pkg/export"
	"github.com/sambeau/qdp/pkg/qdp"
)

// ErrNoConfig is returned when no config file exists in any default location.
var ErrNoConfig = errors.New("no config file found")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadOrDefaults is Load, except that a missing default config yields
// Defaults(). An explicit path that does not exist is still an error.
func LoadOrDefaults(configPath string, getenv func(string) string) (*Config, string, error) {
	cfg, path, err := LoadWithPath(configPath, getenv)
	if errors.Is(err, ErrNoConfig) {
		return Defaults(), "", nil
	}
	return cfg, path, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	// Resolve relative sqlite database path
	if isSQLiteFile(cfg.Export) && !filepath.IsAbs(cfg.Export.DSN) {
		cfg.Export.DSN = filepath.Join(baseDir, cfg.Export.DSN)
	}

	// Resolve relative log file path
	switch cfg.Logging.Output {
	case "", "stderr", "stdout":
	default:
		if !filepath.IsAbs(cfg.Logging.Output) {
			cfg.Logging.Output = filepath.Join(baseDir, cfg.Logging.Output)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// decode picks the format from the file extension: .toml is TOML, anything
// else YAML.
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func isSQLiteFile(e ExportConfig) bool {
	d, err := export.ParseDialect(e.Driver)
	if err != nil || d != export.DialectSQLite {
		return false
	}
	return e.DSN != "" && e.DSN != ":memory:" && !strings.HasPrefix(e.DSN, "file:")
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > QDP_CONFIG env > ./qdp.yaml > ./qdp.toml >
// ~/.config/qdp/qdp.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("QDP_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("QDP_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	for _, name := range []string{"qdp.yaml", "qdp.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "qdp", "qdp.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("%w (tried QDP_CONFIG, qdp.yaml, qdp.toml, ~/.config/qdp/qdp.yaml)", ErrNoConfig)
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	if _, err := qdp.ParseDelimiter(cfg.Read.Delimiter); err != nil {
		errs = append(errs, "read.delimiter: "+err.Error())
	}
	if cfg.Read.TableID != nil && *cfg.Read.TableID < 0 {
		errs = append(errs, fmt.Sprintf("read.table_id: %d is negative", *cfg.Read.TableID))
	}

	if d, err := qdp.ParseDelimiter(cfg.Write.Delimiter); err != nil {
		errs = append(errs, "write.delimiter: "+err.Error())
	} else if d == qdp.DelimAuto && cfg.Write.Delimiter != "" {
		errs = append(errs, "write.delimiter: must be space or comma")
	}
	for _, idx := range append(append([]int{}, cfg.Write.Terr...), cfg.Write.Serr...) {
		if idx < 1 {
			errs = append(errs, fmt.Sprintf("write: error column index %d must be positive", idx))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if _, err := export.ParseDialect(cfg.Export.Driver); err != nil {
		errs = append(errs, "export.driver: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ReadOptions converts the read section into reader options.
func (c *Config) ReadOptions() ([]qdp.Option, error) {
	delim, err := qdp.ParseDelimiter(c.Read.Delimiter)
	if err != nil {
		return nil, err
	}
	opts := []qdp.Option{qdp.WithDelimiter(delim)}
	if len(c.Read.Names) > 0 {
		opts = append(opts, qdp.WithNames(c.Read.Names...))
	}
	if c.Read.TableID != nil {
		opts = append(opts, qdp.WithTableID(*c.Read.TableID))
	}
	return opts, nil
}

// WriteOptions converts the write section into writer options. Without
// terr or serr the error columns are derived from the column names.
func (c *Config) WriteOptions() ([]qdp.WriteOption, error) {
	delim, err := qdp.ParseDelimiter(c.Write.Delimiter)
	if err != nil {
		return nil, err
	}
	opts := []qdp.WriteOption{qdp.WithWriteDelimiter(delim)}
	if len(c.Write.Terr) > 0 || len(c.Write.Serr) > 0 {
		opts = append(opts, qdp.WithErrorSpec(qdp.NewErrorSpec(c.Write.Terr, c.Write.Serr)))
	}
	return opts, nil
}
