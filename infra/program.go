package infra

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Names of the two stack outputs surfaced after provisioning.
const (
	OutputInstanceName     = "instance_name"
	OutputInstancePublicIP = "instance_public_ip"
)

// DefineInfrastructure is the Pulumi program that provisions all resources.
func DefineInfrastructure(cfg *InfraConfig) pulumi.RunFunc {
	return func(ctx *pulumi.Context) error {
		plan, err := BuildPlan(cfg)
		if err != nil {
			return err
		}

		// 1. Enable the compute API
		apis, err := provisionAPIs(ctx, cfg)
		if err != nil {
			return err
		}
		apiReady := pulumi.DependsOn([]pulumi.Resource{apis.Compute})

		// 2. Network (VPC + subnet)
		net, err := provisionNetwork(ctx, cfg, plan, apiReady)
		if err != nil {
			return err
		}

		// 3. Firewall rules
		if err := provisionFirewalls(ctx, cfg, plan, net, apiReady); err != nil {
			return err
		}

		// 4. Compute (VM instance)
		vm, err := provisionCompute(ctx, cfg, plan, net, apiReady)
		if err != nil {
			return err
		}

		ctx.Export(OutputInstanceName, vm.Name)
		ctx.Export(OutputInstancePublicIP, vm.NetworkInterfaces.
			Index(pulumi.Int(0)).
			AccessConfigs().
			Index(pulumi.Int(0)).
			NatIp().Elem())

		return nil
	}
}
