// Package host provides the inventory of managed Proxmox hosts and the
// remote command runner used to reach them.
package host

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ovsman-net/ovsman/pkg/util"
)

// Config describes one managed host from the inventory file.
type Config struct {
	Name     string `yaml:"name"`
	Addr     string `yaml:"addr"` // host or host:port, defaults to :22
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
}

// DialAddr returns the address with the SSH port appended when absent.
func (c *Config) DialAddr() string {
	if strings.Contains(c.Addr, ":") {
		return c.Addr
	}
	return c.Addr + ":22"
}

// Validate checks the fields the runner needs. Credentials are checked
// at dial time since a password may be prompted interactively.
func (c *Config) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(c.Name != "", "host name is required")
	v.Add(c.Addr != "", fmt.Sprintf("host %q: addr is required", c.Name))
	v.Add(c.User != "", fmt.Sprintf("host %q: user is required", c.Name))
	return v.Build()
}

// Inventory is the set of managed hosts, loaded from a YAML file.
type Inventory struct {
	Hosts []*Config `yaml:"hosts"`
}

// LoadInventory reads and validates the host inventory file.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading host inventory: %w", err)
	}

	inv := &Inventory{}
	if err := yaml.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("parsing host inventory %s: %w", path, err)
	}

	seen := make(map[string]bool)
	for _, h := range inv.Hosts {
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("host inventory %s: %w", path, err)
		}
		if seen[h.Name] {
			return nil, fmt.Errorf("host inventory %s: duplicate host %q", path, h.Name)
		}
		seen[h.Name] = true
	}

	return inv, nil
}

// Lookup returns the named host's config.
func (inv *Inventory) Lookup(name string) (*Config, error) {
	for _, h := range inv.Hosts {
		if h.Name == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("host %q not in inventory: %w", name, util.ErrNotFound)
}

// Names returns all host names in sorted order.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.Hosts))
	for _, h := range inv.Hosts {
		names = append(names, h.Name)
	}
	sort.Strings(names)
	return names
}
