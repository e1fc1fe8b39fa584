package infra

import (
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func provisionCompute(ctx *pulumi.Context, cfg *InfraConfig, plan *Plan, net *NetworkResult, opts ...pulumi.ResourceOption) (*compute.Instance, error) {
	spec := plan.Instance

	var accessConfigs compute.InstanceNetworkInterfaceAccessConfigArray
	if spec.EphemeralPublicIP {
		// An empty access config requests an ephemeral external address.
		accessConfigs = append(accessConfigs, &compute.InstanceNetworkInterfaceAccessConfigArgs{})
	}

	vm, err := compute.NewInstance(ctx, "vm", &compute.InstanceArgs{
		Name:        pulumi.String(spec.Name),
		MachineType: pulumi.String(spec.MachineType),
		Zone:        pulumi.String(spec.Zone),
		Project:     pulumi.String(cfg.ProjectID),
		Tags:        pulumi.ToStringArray(spec.Tags),
		BootDisk: &compute.InstanceBootDiskArgs{
			InitializeParams: &compute.InstanceBootDiskInitializeParamsArgs{
				Image: pulumi.String(spec.BootDisk.Image),
				Size:  pulumi.Int(spec.BootDisk.SizeGB),
				Type:  pulumi.String(spec.BootDisk.Type),
			},
		},
		NetworkInterfaces: compute.InstanceNetworkInterfaceArray{
			&compute.InstanceNetworkInterfaceArgs{
				Network:       net.VPC.Name,
				Subnetwork:    net.Subnet.Name,
				AccessConfigs: accessConfigs,
			},
		},
		ServiceAccount: &compute.InstanceServiceAccountArgs{
			// Default compute identity with a broad API scope grant.
			Scopes: pulumi.ToStringArray(spec.Scopes),
		},
		Metadata: pulumi.StringMap{
			// Executed exactly once by the guest OS at first boot.
			"startup-script": pulumi.String(spec.StartupScript),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return vm, nil
}
