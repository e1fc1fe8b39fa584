package infra

import (
	"github.com/pulumi/pulumi-gcp/sdk/v8/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// APIsResult holds API enablement resources for dependency wiring.
type APIsResult struct {
	Compute *projects.Service
}

func provisionAPIs(ctx *pulumi.Context, cfg *InfraConfig) (*APIsResult, error) {
	computeAPI, err := projects.NewService(ctx, "api-compute", &projects.ServiceArgs{
		Project:          pulumi.String(cfg.ProjectID),
		Service:          pulumi.String("compute.googleapis.com"),
		DisableOnDestroy: pulumi.Bool(false),
	})
	if err != nil {
		return nil, err
	}

	return &APIsResult{Compute: computeAPI}, nil
}
