package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/gonode/explorer"
	ConfigFileName    = "explorer.yml"

	// MaxPerPage is the largest page size the gonode search parser accepts
	MaxPerPage = 128
)

// ExplorerConfig holds all explorer configuration settings
type ExplorerConfig struct {
	// APIBaseURL is the root URL of the gonode API
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// RequestTimeout is the HTTP timeout in seconds
	RequestTimeout int `yaml:"request_timeout" json:"request_timeout"`

	// PerPage is the default page size of node listings
	PerPage int `yaml:"per_page" json:"per_page"`

	// ListenAddress is the address the operator console binds to
	ListenAddress string `yaml:"listen_address" json:"listen_address"`

	// AuditEnabled toggles the activity log
	AuditEnabled *bool `yaml:"audit_enabled" json:"audit_enabled"`

	sources        map[string]string
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func newDefault() *ExplorerConfig {
	enabled := true
	return &ExplorerConfig{
		APIBaseURL:     "http://localhost:2405",
		RequestTimeout: 15,
		PerPage:        10,
		ListenAddress:  "127.0.0.1:2406",
		AuditEnabled:   &enabled,
		sources:        make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*ExplorerConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("EXPLORER_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig ExplorerConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"api_base_url", "request_timeout", "per_page", "listen_address", "audit_enabled",
	}
}

func (c *ExplorerConfig) applyFileConfig(file *ExplorerConfig) {
	if file.APIBaseURL != "" {
		c.APIBaseURL = file.APIBaseURL
		c.sources["api_base_url"] = "file"
	}
	if file.RequestTimeout != 0 {
		c.RequestTimeout = file.RequestTimeout
		c.sources["request_timeout"] = "file"
	}
	if file.PerPage != 0 {
		c.PerPage = file.PerPage
		c.sources["per_page"] = "file"
	}
	if file.ListenAddress != "" {
		c.ListenAddress = file.ListenAddress
		c.sources["listen_address"] = "file"
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = file.AuditEnabled
		c.sources["audit_enabled"] = "file"
	}
}

func (c *ExplorerConfig) applyEnvConfig() error {
	if val := os.Getenv("EXPLORER_API_BASE_URL"); val != "" {
		c.APIBaseURL = val
		c.sources["api_base_url"] = "environment"
	}
	if val := os.Getenv("EXPLORER_REQUEST_TIMEOUT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid EXPLORER_REQUEST_TIMEOUT %q: %w", val, err)
		}
		c.RequestTimeout = i
		c.sources["request_timeout"] = "environment"
	}
	if val := os.Getenv("EXPLORER_PER_PAGE"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid EXPLORER_PER_PAGE %q: %w", val, err)
		}
		c.PerPage = i
		c.sources["per_page"] = "environment"
	}
	if val := os.Getenv("EXPLORER_LISTEN_ADDRESS"); val != "" {
		c.ListenAddress = val
		c.sources["listen_address"] = "environment"
	}
	if val := os.Getenv("EXPLORER_AUDIT_ENABLED"); val != "" {
		enabled := val != "false" && val != "0" && val != "no"
		c.AuditEnabled = &enabled
		c.sources["audit_enabled"] = "environment"
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *ExplorerConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *ExplorerConfig) Source(name string) string {
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Timeout returns the request timeout as a duration
func (c *ExplorerConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// IsAuditEnabled reports whether the activity log is on
func (c *ExplorerConfig) IsAuditEnabled() bool {
	return c.AuditEnabled == nil || *c.AuditEnabled
}

// Validate validates the configuration
func (c *ExplorerConfig) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url value: %s", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout value: %d", c.RequestTimeout)
	}
	if c.PerPage < 1 || c.PerPage > MaxPerPage {
		return fmt.Errorf("invalid per_page value: %d (must be between 1 and %d)", c.PerPage, MaxPerPage)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen_address value: %s", c.ListenAddress)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *ExplorerConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "api_base_url", Value: c.APIBaseURL, Source: c.Source("api_base_url")},
		{Name: "request_timeout", Value: strconv.Itoa(c.RequestTimeout), Source: c.Source("request_timeout")},
		{Name: "per_page", Value: strconv.Itoa(c.PerPage), Source: c.Source("per_page")},
		{Name: "listen_address", Value: c.ListenAddress, Source: c.Source("listen_address")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.IsAuditEnabled()), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *ExplorerConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *ExplorerConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
