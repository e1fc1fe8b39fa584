package infra

import (
	"fmt"
	"net"
)

// Fixed identity of the inference workload. The SSH firewall rule targets
// the "ssh" tag, so the instance must always carry it.
var instanceTags = []string{"llm-instance", "ssh"}

const (
	bootDiskImage = "projects/ubuntu-os-cloud/global/images/family/ubuntu-2204-lts"
	bootDiskType  = "pd-ssd"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// NetworkSpec describes the isolated VPC network.
type NetworkSpec struct {
	Name                  string
	RoutingMode           string
	AutoCreateSubnetworks bool
}

// SubnetSpec describes the single IPv4 range bound to the network.
type SubnetSpec struct {
	Name    string
	CIDR    string
	Region  string
	Network string // parent network name (non-owning back-reference)
}

// AllowRule is one protocol/port entry of a firewall rule.
type AllowRule struct {
	Protocol string
	Ports    []string
}

// FirewallSpec describes one declarative firewall rule.
type FirewallSpec struct {
	Name              string
	Network           string
	Direction         string // INGRESS or EGRESS
	Allowed           []AllowRule
	SourceRanges      []string
	DestinationRanges []string
	TargetTags        []string
}

// BootDiskSpec describes the instance's primary disk.
type BootDiskSpec struct {
	Image  string
	SizeGB int
	Type   string
}

// InstanceSpec describes the single VM.
type InstanceSpec struct {
	Name              string
	MachineType       string
	Zone              string
	Tags              []string
	BootDisk          BootDiskSpec
	Subnet            string
	EphemeralPublicIP bool
	Scopes            []string
	StartupScript     string
}

// Plan is the fully rendered desired state. It is a plain value: building
// it performs no cloud calls, so tests can assert over it directly.
type Plan struct {
	Network   NetworkSpec
	Subnet    SubnetSpec
	Firewalls []FirewallSpec
	Instance  InstanceSpec
}

// SSHRule returns the ingress SSH rule of the plan.
func (p *Plan) SSHRule() *FirewallSpec {
	for i := range p.Firewalls {
		if p.Firewalls[i].Direction == "INGRESS" {
			return &p.Firewalls[i]
		}
	}
	return nil
}

// EgressRule returns the allow-all egress rule of the plan.
func (p *Plan) EgressRule() *FirewallSpec {
	for i := range p.Firewalls {
		if p.Firewalls[i].Direction == "EGRESS" {
			return &p.Firewalls[i]
		}
	}
	return nil
}

// Validate checks the inputs that must be rejected before any resource is
// created. The SSH source range is required and is never widened to "any".
func Validate(cfg *InfraConfig) error {
	if cfg.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if cfg.SSHSourceCIDR == "" {
		return fmt.Errorf("ssh_source_cidr is required (your public IP in CIDR notation, e.g. 203.0.113.5/32)")
	}
	if _, _, err := net.ParseCIDR(cfg.SSHSourceCIDR); err != nil {
		// The value is sensitive, so the error does not echo it back.
		return fmt.Errorf("ssh_source_cidr is not a valid CIDR range")
	}
	if cfg.SSHSourceCIDR == "0.0.0.0/0" {
		return fmt.Errorf("ssh_source_cidr must not be 0.0.0.0/0: SSH is only ever opened to the single operator range")
	}
	if _, _, err := net.ParseCIDR(cfg.SubnetCIDR); err != nil {
		return fmt.Errorf("subnet_cidr is not a valid CIDR range: %v", err)
	}
	return nil
}

// BuildPlan renders the desired state for the given inputs. It validates
// first, so an invalid configuration never produces a plan.
func BuildPlan(cfg *InfraConfig) (*Plan, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	subnetName := cfg.Subnet
	if subnetName == "" {
		subnetName = cfg.Network + "-subnet"
	}

	return &Plan{
		Network: NetworkSpec{
			Name:                  cfg.Network,
			RoutingMode:           "REGIONAL",
			AutoCreateSubnetworks: false,
		},
		Subnet: SubnetSpec{
			Name:    subnetName,
			CIDR:    cfg.SubnetCIDR,
			Region:  cfg.Region,
			Network: cfg.Network,
		},
		Firewalls: []FirewallSpec{
			{
				Name:      cfg.Network + "-allow-ssh",
				Network:   cfg.Network,
				Direction: "INGRESS",
				Allowed: []AllowRule{
					{Protocol: "tcp", Ports: []string{"22"}},
				},
				SourceRanges: []string{cfg.SSHSourceCIDR},
				TargetTags:   []string{"ssh"},
			},
			{
				Name:      cfg.Network + "-allow-egress",
				Network:   cfg.Network,
				Direction: "EGRESS",
				Allowed: []AllowRule{
					{Protocol: "all"},
				},
				DestinationRanges: []string{"0.0.0.0/0"},
			},
		},
		Instance: InstanceSpec{
			Name:        cfg.VMName,
			MachineType: cfg.MachineType,
			Zone:        cfg.Zone,
			Tags:        append([]string(nil), instanceTags...),
			BootDisk: BootDiskSpec{
				Image:  bootDiskImage,
				SizeGB: cfg.BootDiskGB,
				Type:   bootDiskType,
			},
			Subnet:            subnetName,
			EphemeralPublicIP: true,
			Scopes:            []string{cloudPlatformScope},
			StartupScript:     cfg.StartupScript,
		},
	}, nil
}
