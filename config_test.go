package main

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	c := Config{}
	applyDefaults(&c)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "zone", got: c.Zone, want: "asia-southeast1-a"},
		{name: "region", got: c.Region, want: "asia-southeast1"},
		{name: "vm name", got: c.VMName, want: "tinylama-vm"},
		{name: "network", got: c.Network, want: "llm-vpc-network"},
		{name: "subnet", got: c.Subnet, want: "llm-vpc-network-subnet"},
		{name: "subnet cidr", got: c.SubnetCIDR, want: "10.10.0.0/20"},
		{name: "machine type", got: c.MachineType, want: "e2-standard-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if c.BootDiskGB != 100 {
		t.Errorf("boot disk = %d, want 100", c.BootDiskGB)
	}
	if c.SSHSourceCIDR != "" {
		t.Errorf("ssh source cidr defaulted to %q, must stay empty (required input)", c.SSHSourceCIDR)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := Config{
		Zone:       "us-central1-b",
		Network:    "my-net",
		SubnetCIDR: "10.20.0.0/24",
	}
	applyDefaults(&c)

	if c.Zone != "us-central1-b" {
		t.Errorf("zone = %q, want us-central1-b", c.Zone)
	}
	if c.Region != "us-central1" {
		t.Errorf("region = %q, want us-central1 (derived from zone)", c.Region)
	}
	if c.Subnet != "my-net-subnet" {
		t.Errorf("subnet = %q, want my-net-subnet", c.Subnet)
	}
	if c.SubnetCIDR != "10.20.0.0/24" {
		t.Errorf("subnet cidr = %q, want 10.20.0.0/24", c.SubnetCIDR)
	}
}

func TestRegionFromZone(t *testing.T) {
	tests := []struct {
		name string
		zone string
		want string
	}{
		{name: "asia", zone: "asia-southeast1-a", want: "asia-southeast1"},
		{name: "us", zone: "us-central1-f", want: "us-central1"},
		{name: "europe", zone: "europe-west4-b", want: "europe-west4"},
		{name: "malformed", zone: "nozone", want: "asia-southeast1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := regionFromZone(tt.zone); got != tt.want {
				t.Errorf("regionFromZone(%q) = %q, want %q", tt.zone, got, tt.want)
			}
		})
	}
}

func TestConfigPathOrDefault(t *testing.T) {
	if got := configPathOrDefault("/tmp/x.json"); got != "/tmp/x.json" {
		t.Errorf("explicit path not honored: %q", got)
	}
	if got := configPathOrDefault(""); got == "" {
		t.Error("default path is empty")
	}
}
