// Package settings manages persistent user settings for the ovsman CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultHost is the host to use when -H is not specified
	DefaultHost string `json:"default_host,omitempty"`

	// InventoryPath overrides the default host inventory file
	InventoryPath string `json:"inventory_path,omitempty"`

	// RedisAddr is the snapshot store address
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ovsman_settings.json"
	}
	return filepath.Join(home, ".ovsman", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetHost sets the default host
func (s *Settings) SetHost(host string) {
	s.DefaultHost = host
}

// SetInventoryPath sets the host inventory file path
func (s *Settings) SetInventoryPath(path string) {
	s.InventoryPath = path
}

// GetInventoryPath returns the inventory path (with fallback)
func (s *Settings) GetInventoryPath() string {
	if s.InventoryPath != "" {
		return s.InventoryPath
	}
	return "/etc/ovsman/hosts.yaml"
}

// SetRedisAddr sets the snapshot store address
func (s *Settings) SetRedisAddr(addr string) {
	s.RedisAddr = addr
}

// GetRedisAddr returns the snapshot store address (with fallback)
func (s *Settings) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return "127.0.0.1:6379"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
