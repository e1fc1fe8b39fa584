package infra

import (
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
)

// InfraConfig holds all parameters needed to provision infrastructure.
type InfraConfig struct {
	ProjectID     string
	Region        string
	Zone          string
	VMName        string
	Network       string
	Subnet        string
	SubnetCIDR    string
	SSHSourceCIDR string // sensitive: never logged, never exported
	MachineType   string
	BootDiskGB    int
	// Embedded content for VM metadata
	StartupScript string
}

// NetworkResult holds provisioned network resources.
type NetworkResult struct {
	VPC    *compute.Network
	Subnet *compute.Subnetwork
}
