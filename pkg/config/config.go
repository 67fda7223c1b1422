// Package config loads the netauth configuration from file, environment,
// and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/netauth/pkg/netauth"
)

// Config represents the netauth configuration.
//
// This structure captures:
//   - Logging configuration
//   - The candidate generation policy (feature flag, override rules)
//   - The krb5.conf location for the Kerberos engine
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NETAUTH_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// GSSEnable allows the IAKERB-with-discovery negotiation path.
	// Default: true
	GSSEnable bool `mapstructure:"gss_enable" yaml:"gss_enable"`

	// Krb5Conf is the krb5.conf path for the Kerberos engine and realm
	// source. Default: /etc/krb5.conf
	Krb5Conf string `mapstructure:"krb5_conf" yaml:"krb5_conf"`

	// UserSelections are user-configured candidate override rules,
	// applied ahead of all heuristics when their host matches.
	UserSelections []UserSelectionConfig `mapstructure:"user_selections" yaml:"user_selections"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output"`
}

// UserSelectionConfig is one candidate override rule.
type UserSelectionConfig struct {
	// Domain is the target hostname the rule applies to (exact,
	// case-insensitive match).
	Domain string `mapstructure:"domain" yaml:"domain"`

	// User restricts the rule to one username; empty matches everyone.
	User string `mapstructure:"user" yaml:"user"`

	// Mech is the mechanism name (Kerberos, NTLM, PKU2U, IAKerb).
	Mech string `mapstructure:"mech" yaml:"mech"`

	// Client is the client principal the rule proposes.
	Client string `mapstructure:"client" yaml:"client"`
}

// GetDefaultConfig returns the built-in defaults.
func GetDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		GSSEnable: true,
		Krb5Conf:  "/etc/krb5.conf",
	}
}

// ApplyDefaults fills zero values with defaults.
func ApplyDefaults(cfg *Config) {
	def := GetDefaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
	if cfg.Krb5Conf == "" {
		cfg.Krb5Conf = def.Krb5Conf
	}
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NETAUTH_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		applyEnvOverrides(v, cfg)
		return cfg, nil
	}

	// gss_enable defaults to true, so absence must not read as false
	v.SetDefault("gss_enable", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies NETAUTH_* environment values onto a default
// config when no file was found.
func applyEnvOverrides(v *viper.Viper, cfg *Config) {
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}
	if v.IsSet("logging.output") {
		cfg.Logging.Output = v.GetString("logging.output")
	}
	if v.IsSet("gss_enable") {
		cfg.GSSEnable = v.GetBool("gss_enable")
	}
	if v.IsSet("krb5_conf") {
		cfg.Krb5Conf = v.GetString("krb5_conf")
	}
}

// Validate checks the configuration for consistency.
func Validate(cfg *Config) error {
	switch strings.ToUpper(cfg.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid logging level %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", cfg.Logging.Format)
	}
	for i, rule := range cfg.UserSelections {
		if rule.Domain == "" {
			return fmt.Errorf("user_selections[%d]: domain is required", i)
		}
		if rule.Client == "" {
			return fmt.Errorf("user_selections[%d]: client is required", i)
		}
		if netauth.ParseMech(rule.Mech) == netauth.MechNone {
			return fmt.Errorf("user_selections[%d]: unknown mechanism %q", i, rule.Mech)
		}
	}
	return nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Override rules can name accounts; keep the file private.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ToNetauth converts the loaded policy into the engine's Config.
func (c *Config) ToNetauth() *netauth.Config {
	out := &netauth.Config{GSSEnable: c.GSSEnable}
	for _, rule := range c.UserSelections {
		out.UserSelections = append(out.UserSelections, netauth.UserSelectionRule{
			Domain: rule.Domain,
			User:   rule.User,
			Mech:   rule.Mech,
			Client: rule.Client,
		})
	}
	return out
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the NETAUTH_ prefix and underscores
	// Example: NETAUTH_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("NETAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// getConfigDir returns $XDG_CONFIG_HOME/netauth (or ~/.config/netauth).
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "netauth")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "netauth")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
