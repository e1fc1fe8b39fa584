package infra

import (
	"reflect"
	"testing"
)

func testConfig() *InfraConfig {
	return &InfraConfig{
		ProjectID:     "demo",
		Region:        "asia-southeast1",
		Zone:          "asia-southeast1-a",
		VMName:        "tinylama-vm",
		Network:       "llm-vpc-network",
		SubnetCIDR:    "10.10.0.0/20",
		SSHSourceCIDR: "203.0.113.5/32",
		MachineType:   "e2-standard-4",
		BootDiskGB:    100,
		StartupScript: "#!/bin/bash\necho ok\n",
	}
}

func TestBuildPlanDefaults(t *testing.T) {
	plan, err := BuildPlan(testConfig())
	if err != nil {
		t.Fatalf("BuildPlan() error: %v", err)
	}

	if plan.Network.Name != "llm-vpc-network" {
		t.Errorf("network name = %q, want llm-vpc-network", plan.Network.Name)
	}
	if plan.Network.AutoCreateSubnetworks {
		t.Error("auto subnet creation must be disabled")
	}
	if plan.Subnet.Name != "llm-vpc-network-subnet" {
		t.Errorf("subnet name = %q, want llm-vpc-network-subnet", plan.Subnet.Name)
	}
	if plan.Subnet.CIDR != "10.10.0.0/20" {
		t.Errorf("subnet cidr = %q, want 10.10.0.0/20", plan.Subnet.CIDR)
	}
	if plan.Subnet.Network != plan.Network.Name {
		t.Errorf("subnet references network %q, want %q", plan.Subnet.Network, plan.Network.Name)
	}
	if plan.Instance.Name != "tinylama-vm" {
		t.Errorf("instance name = %q, want tinylama-vm", plan.Instance.Name)
	}
	if plan.Instance.Zone != "asia-southeast1-a" {
		t.Errorf("instance zone = %q, want asia-southeast1-a", plan.Instance.Zone)
	}
	if !plan.Instance.EphemeralPublicIP {
		t.Error("instance must request an ephemeral public address")
	}
	if plan.Instance.BootDisk.Type != "pd-ssd" || plan.Instance.BootDisk.SizeGB != 100 {
		t.Errorf("boot disk = %+v, want 100GB pd-ssd", plan.Instance.BootDisk)
	}
	if plan.Instance.StartupScript == "" {
		t.Error("instance must carry the startup script payload")
	}

	ssh := plan.SSHRule()
	if ssh == nil {
		t.Fatal("plan has no SSH ingress rule")
	}
	if got, want := ssh.SourceRanges, []string{"203.0.113.5/32"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ssh source ranges = %v, want %v", got, want)
	}
	if got, want := ssh.Allowed, []AllowRule{{Protocol: "tcp", Ports: []string{"22"}}}; !reflect.DeepEqual(got, want) {
		t.Errorf("ssh allowed = %v, want %v", got, want)
	}
}

func TestSSHRuleSourceIsExactlyOperatorRange(t *testing.T) {
	tests := []struct {
		name string
		cidr string
	}{
		{name: "single host", cidr: "203.0.113.5/32"},
		{name: "office range", cidr: "198.51.100.0/24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.SSHSourceCIDR = tt.cidr
			plan, err := BuildPlan(cfg)
			if err != nil {
				t.Fatalf("BuildPlan() error: %v", err)
			}
			ssh := plan.SSHRule()
			if len(ssh.SourceRanges) != 1 || ssh.SourceRanges[0] != tt.cidr {
				t.Errorf("ssh source ranges = %v, want exactly [%s]", ssh.SourceRanges, tt.cidr)
			}
			for _, r := range ssh.SourceRanges {
				if r == "0.0.0.0/0" {
					t.Error("ssh rule must never be widened to 0.0.0.0/0")
				}
			}
		})
	}
}

func TestEgressRuleAlwaysOpen(t *testing.T) {
	// The egress rule is independent of other inputs.
	cfgs := []*InfraConfig{testConfig(), testConfig()}
	cfgs[1].SSHSourceCIDR = "198.51.100.0/24"
	cfgs[1].SubnetCIDR = "172.16.0.0/16"
	cfgs[1].Network = "other-net"

	for _, cfg := range cfgs {
		plan, err := BuildPlan(cfg)
		if err != nil {
			t.Fatalf("BuildPlan() error: %v", err)
		}
		egress := plan.EgressRule()
		if egress == nil {
			t.Fatal("plan has no egress rule")
		}
		if got, want := egress.DestinationRanges, []string{"0.0.0.0/0"}; !reflect.DeepEqual(got, want) {
			t.Errorf("egress destination ranges = %v, want %v", got, want)
		}
		if got, want := egress.Allowed, []AllowRule{{Protocol: "all"}}; !reflect.DeepEqual(got, want) {
			t.Errorf("egress allowed = %v, want %v", got, want)
		}
	}
}

func TestInstanceTagsCoverFirewallTargets(t *testing.T) {
	plan, err := BuildPlan(testConfig())
	if err != nil {
		t.Fatalf("BuildPlan() error: %v", err)
	}

	tags := make(map[string]bool)
	for _, tag := range plan.Instance.Tags {
		tags[tag] = true
	}
	if !tags["llm-instance"] || !tags["ssh"] {
		t.Errorf("instance tags = %v, want both llm-instance and ssh", plan.Instance.Tags)
	}

	// The SSH rule's target tag set must be a subset of the instance tags,
	// otherwise the rule never applies.
	for _, target := range plan.SSHRule().TargetTags {
		if !tags[target] {
			t.Errorf("ssh rule targets tag %q the instance does not carry", target)
		}
	}
}

func TestSubnetCIDRChangeIsIsolated(t *testing.T) {
	base, err := BuildPlan(testConfig())
	if err != nil {
		t.Fatalf("BuildPlan() error: %v", err)
	}

	changed := testConfig()
	changed.SubnetCIDR = "10.20.0.0/20"
	next, err := BuildPlan(changed)
	if err != nil {
		t.Fatalf("BuildPlan() error: %v", err)
	}

	if next.Subnet.CIDR != "10.20.0.0/20" {
		t.Errorf("subnet cidr = %q, want 10.20.0.0/20", next.Subnet.CIDR)
	}
	if next.Network != base.Network {
		t.Errorf("network changed with subnet cidr: %+v != %+v", next.Network, base.Network)
	}
	if next.Subnet.Name != base.Subnet.Name {
		t.Errorf("subnet identity changed with cidr: %q != %q", next.Subnet.Name, base.Subnet.Name)
	}
	if !reflect.DeepEqual(next.Instance, base.Instance) {
		t.Error("instance spec changed with subnet cidr")
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InfraConfig)
	}{
		{
			name:   "missing project",
			mutate: func(c *InfraConfig) { c.ProjectID = "" },
		},
		{
			name:   "missing ssh source",
			mutate: func(c *InfraConfig) { c.SSHSourceCIDR = "" },
		},
		{
			name:   "ssh source not a cidr",
			mutate: func(c *InfraConfig) { c.SSHSourceCIDR = "203.0.113.5" },
		},
		{
			name:   "ssh source open to the world",
			mutate: func(c *InfraConfig) { c.SSHSourceCIDR = "0.0.0.0/0" },
		},
		{
			name:   "bad subnet cidr",
			mutate: func(c *InfraConfig) { c.SubnetCIDR = "10.10.0.0/99" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := BuildPlan(cfg); err == nil {
				t.Error("BuildPlan() accepted invalid config, want error")
			}
		})
	}
}

func TestValidateAcceptsScenario(t *testing.T) {
	// spec scenario: project demo, ssh 203.0.113.5/32, all other defaults.
	if err := Validate(testConfig()); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
