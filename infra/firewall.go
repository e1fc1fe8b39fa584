package infra

import (
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/compute"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func provisionFirewalls(ctx *pulumi.Context, cfg *InfraConfig, plan *Plan, net *NetworkResult, opts ...pulumi.ResourceOption) error {
	names := map[string]string{
		"INGRESS": "firewall-ssh",
		"EGRESS":  "firewall-egress",
	}

	for i := range plan.Firewalls {
		rule := &plan.Firewalls[i]

		var allows compute.FirewallAllowArray
		for _, a := range rule.Allowed {
			allows = append(allows, &compute.FirewallAllowArgs{
				Protocol: pulumi.String(a.Protocol),
				Ports:    pulumi.ToStringArray(a.Ports),
			})
		}

		args := &compute.FirewallArgs{
			Name:      pulumi.String(rule.Name),
			Project:   pulumi.String(cfg.ProjectID),
			Network:   net.VPC.ID(),
			Direction: pulumi.String(rule.Direction),
			Allows:    allows,
		}
		if len(rule.SourceRanges) > 0 {
			// The SSH source range is the operator's own address and is
			// marked sensitive: keep it out of engine output and plaintext
			// state.
			args.SourceRanges = pulumi.ToSecret(pulumi.ToStringArray(rule.SourceRanges)).(pulumi.StringArrayOutput)
		}
		if len(rule.DestinationRanges) > 0 {
			args.DestinationRanges = pulumi.ToStringArray(rule.DestinationRanges)
		}
		if len(rule.TargetTags) > 0 {
			args.TargetTags = pulumi.ToStringArray(rule.TargetTags)
		}

		if _, err := compute.NewFirewall(ctx, names[rule.Direction], args, opts...); err != nil {
			return err
		}
	}

	return nil
}
