package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the OpenNeuroLens server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db"`         // SQLite database path (":memory:" keeps sessions in process memory)

	// AssetsDir is a local directory or an s3://bucket/prefix URL.
	AssetsDir  string `yaml:"assets"`
	S3Endpoint string `yaml:"s3_endpoint"` // Optional custom endpoint (MinIO, localstack)
	S3Region   string `yaml:"s3_region"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	StepDelay time.Duration `yaml:"step_delay"` // Delay before each progress update
	Secure    bool          `yaml:"secure"`     // Use secure cookies (HTTPS)

	// Datasets maps example dataset labels to asset store directories.
	Datasets map[string]string `yaml:"datasets"`

	Page Page `yaml:"page"`
}

// Page selects which optional sections of the dashboard are active.
type Page struct {
	LoginGate         bool `yaml:"login_gate"`
	Logout            bool `yaml:"logout"`
	Background        bool `yaml:"background"`
	Logo              bool `yaml:"logo"`
	ConfigPanel       bool `yaml:"config_panel"`
	CredentialHint    bool `yaml:"credential_hint"`
	SyntheticExplorer bool `yaml:"synthetic_explorer"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		DBPath:    ":memory:",
		AssetsDir: "static",
		S3Region:  "us-east-1",
		Username:  "test",
		Password:  "pw",
		StepDelay: 30 * time.Millisecond,
		Datasets: map[string]string{
			"EEG1": "Example1",
			"EEG2": "Example2",
		},
		Page: Page{
			LoginGate:         true,
			Logout:            true,
			Background:        false,
			Logo:              true,
			ConfigPanel:       true,
			CredentialHint:    true,
			SyntheticExplorer: true,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg.
// Keys missing from the file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides the demo credentials from NEUROLENS_USER and NEUROLENS_PASSWORD.
func (c *ServerConfig) ApplyEnv() {
	if v := os.Getenv("NEUROLENS_USER"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("NEUROLENS_PASSWORD"); v != "" {
		c.Password = v
	}
}

// Validate reports every invalid field at once.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Page.LoginGate && (c.Username == "" || c.Password == "") {
		errs = append(errs, errors.New("username and password are required when the login gate is enabled"))
	}
	if c.StepDelay < 0 {
		errs = append(errs, fmt.Errorf("step_delay must not be negative, got %s", c.StepDelay))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.AssetsDir == "" {
		errs = append(errs, errors.New("assets must not be empty"))
	}
	return errors.Join(errs...)
}

// IsS3 reports whether the asset store points at an S3 bucket.
func (c ServerConfig) IsS3() bool {
	return strings.HasPrefix(c.AssetsDir, "s3://")
}

// S3Location splits an s3://bucket/prefix URL into bucket and prefix.
func (c ServerConfig) S3Location() (bucket, prefix string, err error) {
	if !c.IsS3() {
		return "", "", fmt.Errorf("not an s3 location: %q", c.AssetsDir)
	}
	rest := strings.TrimPrefix(c.AssetsDir, "s3://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", c.AssetsDir)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}
