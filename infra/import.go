package infra

import (
	"context"
	"fmt"
	"log"
	"sync"

	compute "cloud.google.com/go/compute/apiv1"
	"cloud.google.com/go/compute/apiv1/computepb"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optimport"
)

// DetectExistingResources queries GCP APIs in parallel and returns import
// specs for any resources that already exist.
func DetectExistingResources(ctx context.Context, cfg *InfraConfig) []*optimport.ImportResource {
	var resources []*optimport.ImportResource
	var mu sync.Mutex
	var wg sync.WaitGroup

	add := func(typ, name, id string) {
		mu.Lock()
		resources = append(resources, &optimport.ImportResource{
			Type: typ,
			Name: name,
			ID:   id,
		})
		mu.Unlock()
		log.Printf("[import] found %s: %s", name, id)
	}

	// VPC
	wg.Add(1)
	go func() {
		defer wg.Done()
		client, err := compute.NewNetworksRESTClient(ctx)
		if err != nil {
			return
		}
		defer client.Close() //nolint:errcheck
		_, err = client.Get(ctx, &computepb.GetNetworkRequest{
			Project: cfg.ProjectID,
			Network: cfg.Network,
		})
		if err == nil {
			add("gcp:compute/network:Network", "vpc",
				fmt.Sprintf("projects/%s/global/networks/%s", cfg.ProjectID, cfg.Network))
		}
	}()

	// Subnet
	wg.Add(1)
	go func() {
		defer wg.Done()
		client, err := compute.NewSubnetworksRESTClient(ctx)
		if err != nil {
			return
		}
		defer client.Close() //nolint:errcheck
		subnet := cfg.Subnet
		if subnet == "" {
			subnet = cfg.Network + "-subnet"
		}
		_, err = client.Get(ctx, &computepb.GetSubnetworkRequest{
			Project:    cfg.ProjectID,
			Region:     cfg.Region,
			Subnetwork: subnet,
		})
		if err == nil {
			add("gcp:compute/subnetwork:Subnetwork", "subnet",
				fmt.Sprintf("projects/%s/regions/%s/subnetworks/%s", cfg.ProjectID, cfg.Region, subnet))
		}
	}()

	// Firewall rules
	firewallSpecs := []struct {
		ruleName string
		name     string
	}{
		{cfg.Network + "-allow-ssh", "firewall-ssh"},
		{cfg.Network + "-allow-egress", "firewall-egress"},
	}
	for _, spec := range firewallSpecs {
		wg.Add(1)
		go func(ruleName, name string) {
			defer wg.Done()
			client, err := compute.NewFirewallsRESTClient(ctx)
			if err != nil {
				return
			}
			defer client.Close() //nolint:errcheck
			_, err = client.Get(ctx, &computepb.GetFirewallRequest{
				Project:  cfg.ProjectID,
				Firewall: ruleName,
			})
			if err == nil {
				add("gcp:compute/firewall:Firewall", name,
					fmt.Sprintf("projects/%s/global/firewalls/%s", cfg.ProjectID, ruleName))
			}
		}(spec.ruleName, spec.name)
	}

	// VM Instance
	wg.Add(1)
	go func() {
		defer wg.Done()
		client, err := compute.NewInstancesRESTClient(ctx)
		if err != nil {
			return
		}
		defer client.Close() //nolint:errcheck
		_, err = client.Get(ctx, &computepb.GetInstanceRequest{
			Project:  cfg.ProjectID,
			Zone:     cfg.Zone,
			Instance: cfg.VMName,
		})
		if err == nil {
			add("gcp:compute/instance:Instance", "vm",
				fmt.Sprintf("projects/%s/zones/%s/instances/%s", cfg.ProjectID, cfg.Zone, cfg.VMName))
		}
	}()

	wg.Wait()

	if len(resources) > 0 {
		log.Printf("[import] detected %d existing resources", len(resources))
	}
	return resources
}
