package infra

import (
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func provisionNetwork(ctx *pulumi.Context, cfg *InfraConfig, plan *Plan, opts ...pulumi.ResourceOption) (*NetworkResult, error) {
	vpc, err := compute.NewNetwork(ctx, "vpc", &compute.NetworkArgs{
		Name:                  pulumi.String(plan.Network.Name),
		Project:               pulumi.String(cfg.ProjectID),
		RoutingMode:           pulumi.String(plan.Network.RoutingMode),
		AutoCreateSubnetworks: pulumi.Bool(plan.Network.AutoCreateSubnetworks),
	}, opts...)
	if err != nil {
		return nil, err
	}

	subnet, err := compute.NewSubnetwork(ctx, "subnet", &compute.SubnetworkArgs{
		Name:        pulumi.String(plan.Subnet.Name),
		IpCidrRange: pulumi.String(plan.Subnet.CIDR),
		Region:      pulumi.String(plan.Subnet.Region),
		Network:     vpc.ID(),
		Project:     pulumi.String(cfg.ProjectID),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &NetworkResult{VPC: vpc, Subnet: subnet}, nil
}
