package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/compute/apiv1/computepb"
)

// externalIP extracts the ephemeral external address from an instance, or
// "" if none is assigned yet.
func externalIP(instance *computepb.Instance) string {
	ifaces := instance.GetNetworkInterfaces()
	if len(ifaces) == 0 {
		return ""
	}
	configs := ifaces[0].GetAccessConfigs()
	if len(configs) == 0 {
		return ""
	}
	return configs[0].GetNatIP()
}

// getInstance fetches the configured VM instance.
func getInstance(ctx context.Context) (*computepb.Instance, error) {
	client, err := gcp.Instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}

	instance, err := client.Get(ctx, &computepb.GetInstanceRequest{
		Project:  cfg.ProjectID,
		Zone:     cfg.Zone,
		Instance: cfg.VMName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// vmExists reports whether the configured VM instance exists.
func vmExists(ctx context.Context) bool {
	_, err := getInstance(ctx)
	return err == nil
}

// startVM starts the VM if stopped and waits for RUNNING plus an external
// IP. Returns the external IP.
func startVM(ctx context.Context) (string, error) {
	log.Printf("[vm] starting (project=%s, zone=%s, vm=%s)", cfg.ProjectID, cfg.Zone, cfg.VMName)

	client, err := gcp.Instances(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create compute client: %w", err)
	}

	instance, err := getInstance(ctx)
	if err != nil {
		return "", err
	}

	status := instance.GetStatus()
	log.Printf("[vm] status: %s", status)

	if status == "RUNNING" {
		ip := externalIP(instance)
		if ip == "" {
			return "", fmt.Errorf("VM running but no external IP assigned")
		}
		return ip, nil
	}

	if status == "TERMINATED" || status == "STOPPED" || status == "SUSPENDED" {
		_, err := client.Start(ctx, &computepb.StartInstanceRequest{
			Project:  cfg.ProjectID,
			Zone:     cfg.Zone,
			Instance: cfg.VMName,
		})
		if err != nil {
			return "", fmt.Errorf("failed to start instance: %w", err)
		}
	}

	// Wait for RUNNING + external IP assigned
	for i := 0; i < 60; i++ {
		time.Sleep(5 * time.Second)
		instance, err = getInstance(ctx)
		if err != nil {
			continue
		}
		if instance.GetStatus() == "RUNNING" {
			if ip := externalIP(instance); ip != "" {
				log.Printf("[vm] running at %s", ip)
				return ip, nil
			}
			log.Printf("[vm] RUNNING but no external IP yet, waiting...")
		}
	}
	return "", fmt.Errorf("timeout waiting for VM to start")
}

// stopVM stops the VM and waits for it to reach TERMINATED state.
func stopVM(ctx context.Context) error {
	client, err := gcp.Instances(ctx)
	if err != nil {
		return fmt.Errorf("failed to create compute client: %w", err)
	}

	instance, err := getInstance(ctx)
	if err != nil {
		return err
	}

	status := instance.GetStatus()
	if status == "TERMINATED" || status == "STOPPED" {
		log.Printf("[vm] already stopped (%s)", status)
		return nil
	}

	log.Printf("[vm] stopping VM (status=%s)...", status)
	_, err = client.Stop(ctx, &computepb.StopInstanceRequest{
		Project:  cfg.ProjectID,
		Zone:     cfg.Zone,
		Instance: cfg.VMName,
	})
	if err != nil {
		return fmt.Errorf("failed to stop instance: %w", err)
	}

	for i := 0; i < 60; i++ {
		time.Sleep(5 * time.Second)
		instance, err = getInstance(ctx)
		if err != nil {
			continue
		}
		status = instance.GetStatus()
		if status == "TERMINATED" || status == "STOPPED" {
			log.Printf("[vm] stopped")
			return nil
		}
		log.Printf("[vm] waiting for stop... (%s)", status)
	}
	return fmt.Errorf("timeout waiting for VM to stop")
}

// serialPortOutput fetches the guest's serial console output. This is the
// only way to see boot-script success/failure without SSHing in: the
// provisioning engine never inspects the in-guest script result.
func serialPortOutput(ctx context.Context) (string, error) {
	client, err := gcp.Instances(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create compute client: %w", err)
	}

	out, err := client.GetSerialPortOutput(ctx, &computepb.GetSerialPortOutputInstanceRequest{
		Project:  cfg.ProjectID,
		Zone:     cfg.Zone,
		Instance: cfg.VMName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get serial output: %w", err)
	}
	return out.GetContents(), nil
}
