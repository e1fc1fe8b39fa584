package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
)

// Config holds operator configuration loaded from config.json.
// SSHSourceCIDR is sensitive: it is persisted (0600) but never logged and
// never included in command output.
type Config struct {
	ProjectID     string `json:"project_id"`
	Region        string `json:"region"`
	Zone          string `json:"zone"`
	VMName        string `json:"vm_name"`
	Network       string `json:"network"`
	Subnet        string `json:"subnet"`
	SubnetCIDR    string `json:"subnet_cidr"`
	SSHSourceCIDR string `json:"ssh_source_cidr"`
	MachineType   string `json:"machine_type"`
	BootDiskGB    int    `json:"boot_disk_gb"`
}

var cfg Config

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gcp-ai-vm-infra", "config.json")
}

func configPathOrDefault(path string) string {
	if path != "" {
		return path
	}
	return defaultConfigPath()
}

// loadConfig loads and validates config from file. Fails if file is missing.
func loadConfig(path string) error {
	path = configPathOrDefault(path)

	data, err := os.ReadFile(path) //nolint:gosec // path from known config dir
	if err != nil {
		return fmt.Errorf("config not found: %s\nRun 'llm-vm up' to set up infrastructure", path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.ProjectID == "" || cfg.Zone == "" {
		return fmt.Errorf("config must include project_id and zone")
	}

	return nil
}

// loadConfigFile loads config from file if it exists. Returns true if loaded.
func loadConfigFile(path string) bool {
	path = configPathOrDefault(path)
	data, err := os.ReadFile(path) //nolint:gosec // path from known config dir
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return false
	}
	return true
}

// applyDefaults fills in default values for empty config fields.
func applyDefaults(c *Config) {
	if c.Zone == "" {
		c.Zone = "asia-southeast1-a"
	}
	if c.Region == "" {
		c.Region = regionFromZone(c.Zone)
	}
	if c.VMName == "" {
		c.VMName = "tinylama-vm"
	}
	if c.Network == "" {
		c.Network = "llm-vpc-network"
	}
	if c.Subnet == "" {
		c.Subnet = c.Network + "-subnet"
	}
	if c.SubnetCIDR == "" {
		c.SubnetCIDR = "10.10.0.0/20"
	}
	if c.MachineType == "" {
		c.MachineType = "e2-standard-4"
	}
	if c.BootDiskGB == 0 {
		c.BootDiskGB = 100
	}
}

// regionFromZone strips the zone suffix: asia-southeast1-a → asia-southeast1.
func regionFromZone(zone string) string {
	parts := strings.Split(zone, "-")
	if len(parts) >= 3 {
		return strings.Join(parts[:len(parts)-1], "-")
	}
	return "asia-southeast1"
}

// inferProjectID gets the GCP project ID from Application Default Credentials.
// For authorized_user credentials, ProjectID is empty so we fall back to
// quota_project_id from the raw credential JSON.
func inferProjectID() string {
	creds, err := google.FindDefaultCredentials(context.Background())
	if err != nil {
		return ""
	}
	if creds.ProjectID != "" {
		return creds.ProjectID
	}
	if creds.JSON != nil {
		var f struct {
			QuotaProjectID string `json:"quota_project_id"`
		}
		if json.Unmarshal(creds.JSON, &f) == nil && f.QuotaProjectID != "" {
			return f.QuotaProjectID
		}
	}
	return ""
}

// saveConfig writes the current config to the config file.
func saveConfig(path string) error {
	path = configPathOrDefault(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// promptString prompts the user for a string value with a default.
func promptString(label, defaultVal string) string {
	reader := bufio.NewReader(os.Stdin)
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// StateDir returns the local Pulumi state directory path.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gcp-ai-vm-infra", "state"), nil
}
