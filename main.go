package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chiangyaw/gcp-ai-vm-infra/infra"
	"github.com/chiangyaw/gcp-ai-vm-infra/tui"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: llm-vm <command> [flags]

Provision a single GCP VM, private network, and firewall rules for an
LLM inference workload.

Commands:
  configure        Create or update configuration interactively
  preview          Show what an up would change without applying
  up               Provision or reconcile infrastructure
  down             Destroy all infrastructure
  status           Show instance state, public IP, and stack outputs
  start            Start the VM and wait for an external IP
  stop             Stop the VM
  logs             Print the VM serial console output (boot script result)

Flags:
  -help            Display this message
  -version         Print the version

Run 'llm-vm <command> --help' for command-specific flags.
`)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "-help") {
		usage()
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Println("llm-vm " + tui.Version)
		os.Exit(0)
	}

	// First non-flag arg is the subcommand
	cmd := ""
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer gcp.Close()

	switch cmd {
	case "configure":
		fs := flag.NewFlagSet("llm-vm configure", flag.ExitOnError)
		configPath := fs.String("config", "", "Path to config.json")
		fs.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: llm-vm configure [flags]\n\nCreate or update configuration interactively.\n\nFlags:\n")
			fs.PrintDefaults()
		}
		_ = fs.Parse(args)
		runConfigure(*configPath)
		fmt.Printf("Configuration saved to %s\n", configPathOrDefault(*configPath))

	case "up":
		runUp(ctx, args)

	case "preview":
		runPreview(ctx, args)

	case "down", "status", "start", "stop", "logs":
		fs := flag.NewFlagSet("llm-vm "+cmd, flag.ExitOnError)
		configPath := fs.String("config", "", "Path to config.json")
		_ = fs.Parse(args)
		if err := loadConfig(*configPath); err != nil {
			log.Fatalf("config error: %v", err)
		}
		switch cmd {
		case "down":
			runDown(ctx)
		case "status":
			runStatus(ctx)
		case "start":
			if _, err := startVM(ctx); err != nil {
				log.Fatalf("start failed: %v", err)
			}
		case "stop":
			if err := stopVM(ctx); err != nil {
				log.Fatalf("stop failed: %v", err)
			}
		case "logs":
			out, err := serialPortOutput(ctx)
			if err != nil {
				log.Fatalf("logs failed: %v", err)
			}
			fmt.Print(out)
		}

	default:
		if cmd != "" {
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		}
		usage()
		os.Exit(1)
	}
}

// ── configure ────────────────────────────────────────────────────

func runConfigure(configPath string) {
	firstRun := !loadConfigFile(configPath)

	if cfg.ProjectID == "" {
		if p := inferProjectID(); p != "" {
			cfg.ProjectID = p
		}
	}

	runInteractiveSetup(firstRun)
	applyDefaults(&cfg)

	if cfg.ProjectID == "" {
		log.Fatalf("project_id is required.\nUse 'llm-vm configure' and provide a GCP Project ID")
	}

	if err := saveConfig(configPath); err != nil {
		log.Fatalf("failed to save config: %v", err)
	}
}

// ── up ───────────────────────────────────────────────────────────

func runUp(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("llm-vm up", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	addConfigFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llm-vm up [flags]\n\nProvision or reconcile cloud infrastructure.\nOn first run, prompts for required values interactively.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	// ── Phase 1: Config + interactive prompts (normal terminal) ──

	existed := loadConfigFile(*pConfigPath)
	applyConfigFlags()

	if cfg.ProjectID == "" {
		if p := inferProjectID(); p != "" {
			cfg.ProjectID = p
		}
	}

	if !existed {
		runInteractiveSetup(true)
	}

	applyDefaults(&cfg)

	if err := infra.Validate(newInfraConfig()); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := saveConfig(*pConfigPath); err != nil {
		log.Fatalf("failed to save config: %v", err)
	}

	// ── Phase 2: Fullscreen TUI ──

	opProg := tui.NewOperationProgram(tui.OpKindUp)

	tuiDone := make(chan error, 1)
	go func() { tuiDone <- opProg.Start() }()
	opProg.WaitReady()

	logWriter := opProg.LogWriter()
	log.SetOutput(logWriter)
	log.SetFlags(log.Ltime)
	defer func() {
		logWriter.Close()
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	log.Printf("[up] config saved to %s", configPathOrDefault(*pConfigPath))
	log.Printf("[up] project=%s zone=%s vm=%s network=%s", cfg.ProjectID, cfg.Zone, cfg.VMName, cfg.Network)

	// Background goroutine: preview → confirm → up → done
	go func() {
		opProg.SetPhase(tui.OpPhasePreview)
		opProg.SetStep("Previewing infrastructure changes...")
		stateDir, _ := StateDir()
		result, err := infra.Preview(ctx, newInfraConfig(), stateDir, logWriter)
		if err != nil {
			opProg.Done(fmt.Errorf("preview failed: %w", err))
			return
		}

		// Check if there are actual changes
		summary := make(map[string]int)
		for k, v := range result.ChangeSummary {
			summary[string(k)] = v
		}
		hasChanges := summary["create"] > 0 || summary["update"] > 0 || summary["delete"] > 0

		if hasChanges {
			opProg.SetSummary(summary)
			opProg.SetPhase(tui.OpPhaseConfirm)
			if !opProg.WaitConfirm(ctx) {
				return // user cancelled — model handles done/quit
			}
		}

		opProg.SetPhase(tui.OpPhaseApply)
		opProg.SetStep("Provisioning infrastructure...")
		outs, err := infra.Up(ctx, newInfraConfig(), stateDir, logWriter)
		if err != nil {
			opProg.Done(fmt.Errorf("up failed: %w", err))
			return
		}

		log.Printf("[up] infrastructure provisioned successfully")
		log.Printf("[up] instance %s is booting; the first-boot script installs the model stack and runs one inference", outs.InstanceName)
		log.Printf("[up] check 'llm-vm logs' for /var/log/llm_setup_success.log or llm_setup_error.log")
		opProg.SetOutputs(outputLines(outs))
		opProg.Done(nil)
	}()

	if err := <-tuiDone; err != nil {
		fmt.Fprintf(os.Stderr, "[tui] error: %v\n", err)
	}
	if exitErr := opProg.ExitError(); exitErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		os.Exit(1)
	}
}

// ── preview ──────────────────────────────────────────────────────

func runPreview(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("llm-vm preview", flag.ExitOnError)
	pConfigPath := fs.String("config", "", "Path to config.json")
	addConfigFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llm-vm preview [flags]\n\nShow what an up would change without applying.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if !loadConfigFile(*pConfigPath) {
		log.Fatalf("config not found; run 'llm-vm up' or 'llm-vm configure' first")
	}
	applyConfigFlags()
	applyDefaults(&cfg)

	if err := infra.Validate(newInfraConfig()); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	opProg := tui.NewOperationProgram(tui.OpKindPreview)

	tuiDone := make(chan error, 1)
	go func() { tuiDone <- opProg.Start() }()
	opProg.WaitReady()

	logWriter := opProg.LogWriter()
	log.SetOutput(logWriter)
	log.SetFlags(log.Ltime)
	defer func() {
		logWriter.Close()
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	go func() {
		opProg.SetPhase(tui.OpPhasePreview)
		opProg.SetStep("Previewing infrastructure changes...")
		stateDir, _ := StateDir()
		result, err := infra.Preview(ctx, newInfraConfig(), stateDir, logWriter)
		if err != nil {
			opProg.Done(fmt.Errorf("preview failed: %w", err))
			return
		}

		summary := make(map[string]int)
		for k, v := range result.ChangeSummary {
			summary[string(k)] = v
		}
		opProg.SetSummary(summary)

		log.Printf("[preview] %d to create, %d to update, %d to delete, %d unchanged",
			summary["create"], summary["update"], summary["delete"], summary["same"])
		opProg.Done(nil)
	}()

	if err := <-tuiDone; err != nil {
		fmt.Fprintf(os.Stderr, "[tui] error: %v\n", err)
	}
	if exitErr := opProg.ExitError(); exitErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		os.Exit(1)
	}
}

// ── down ─────────────────────────────────────────────────────────

func runDown(ctx context.Context) {
	opProg := tui.NewOperationProgram(tui.OpKindDown)

	tuiDone := make(chan error, 1)
	go func() { tuiDone <- opProg.Start() }()
	opProg.WaitReady()

	logWriter := opProg.LogWriter()
	log.SetOutput(logWriter)
	log.SetFlags(log.Ltime)
	defer func() {
		logWriter.Close()
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	go func() {
		opProg.SetPhase(tui.OpPhaseConfirm)
		if !opProg.WaitConfirm(ctx) {
			return
		}

		opProg.SetPhase(tui.OpPhaseDestroy)
		opProg.SetStep("Destroying infrastructure...")
		stateDir, _ := StateDir()
		if err := infra.Down(ctx, newInfraConfig(), stateDir, logWriter); err != nil {
			opProg.Done(fmt.Errorf("down failed: %w", err))
			return
		}

		log.Printf("[down] infrastructure destroyed")
		opProg.Done(nil)
	}()

	if err := <-tuiDone; err != nil {
		fmt.Fprintf(os.Stderr, "[tui] error: %v\n", err)
	}
	if exitErr := opProg.ExitError(); exitErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr)
		os.Exit(1)
	}
}

// ── status ───────────────────────────────────────────────────────

func runStatus(ctx context.Context) {
	instance, err := getInstance(ctx)
	if err != nil {
		if isAuthError(err) {
			log.Fatalf("GCP credentials expired — run 'gcloud auth application-default login'")
		}
		fmt.Printf("instance:   %s (not found)\n", cfg.VMName)
	} else {
		fmt.Printf("instance:   %s\n", instance.GetName())
		fmt.Printf("status:     %s\n", instance.GetStatus())
		if ip := externalIP(instance); ip != "" {
			fmt.Printf("public ip:  %s\n", ip)
		} else {
			fmt.Printf("public ip:  (none assigned)\n")
		}
	}

	stateDir, _ := StateDir()
	outs, err := infra.StackOutputs(ctx, newInfraConfig(), stateDir)
	if err != nil {
		log.Printf("[status] stack outputs unavailable: %v", err)
		return
	}
	for _, line := range outputLines(outs) {
		fmt.Println(line)
	}
}

// ── helpers ──────────────────────────────────────────────────────

// configFlags holds the pointers registered by addConfigFlags.
var configFlags struct {
	projectID     *string
	region        *string
	zone          *string
	vmName        *string
	network       *string
	subnet        *string
	subnetCIDR    *string
	sshSourceCIDR *string
	machineType   *string
	bootDiskGB    *int
}

func addConfigFlags(fs *flag.FlagSet) {
	configFlags.projectID = fs.String("project-id", "", "GCP project ID (default: from Application Default Credentials)")
	configFlags.region = fs.String("region", "", "GCP region (default: derived from zone)")
	configFlags.zone = fs.String("zone", "", "GCP zone (default: asia-southeast1-a)")
	configFlags.vmName = fs.String("vm-name", "", "VM instance name (default: tinylama-vm)")
	configFlags.network = fs.String("network", "", "VPC network name (default: llm-vpc-network)")
	configFlags.subnet = fs.String("subnet", "", "Subnet name (default: <network>-subnet)")
	configFlags.subnetCIDR = fs.String("subnet-cidr", "", "Subnet CIDR (default: 10.10.0.0/20)")
	configFlags.sshSourceCIDR = fs.String("ssh-source-cidr", "", "CIDR allowed to reach SSH (required, e.g. 203.0.113.5/32)")
	configFlags.machineType = fs.String("machine-type", "", "VM machine type (default: e2-standard-4)")
	configFlags.bootDiskGB = fs.Int("boot-disk-gb", 0, "Boot disk size in GB (default: 100)")
}

func applyConfigFlags() {
	if *configFlags.projectID != "" {
		cfg.ProjectID = *configFlags.projectID
	}
	if *configFlags.region != "" {
		cfg.Region = *configFlags.region
	}
	if *configFlags.zone != "" {
		cfg.Zone = *configFlags.zone
	}
	if *configFlags.vmName != "" {
		cfg.VMName = *configFlags.vmName
	}
	if *configFlags.network != "" {
		cfg.Network = *configFlags.network
	}
	if *configFlags.subnet != "" {
		cfg.Subnet = *configFlags.subnet
	}
	if *configFlags.subnetCIDR != "" {
		cfg.SubnetCIDR = *configFlags.subnetCIDR
	}
	if *configFlags.sshSourceCIDR != "" {
		cfg.SSHSourceCIDR = *configFlags.sshSourceCIDR
	}
	if *configFlags.machineType != "" {
		cfg.MachineType = *configFlags.machineType
	}
	if *configFlags.bootDiskGB != 0 {
		cfg.BootDiskGB = *configFlags.bootDiskGB
	}
}

func newInfraConfig() *infra.InfraConfig {
	return &infra.InfraConfig{
		ProjectID:     cfg.ProjectID,
		Region:        cfg.Region,
		Zone:          cfg.Zone,
		VMName:        cfg.VMName,
		Network:       cfg.Network,
		Subnet:        cfg.Subnet,
		SubnetCIDR:    cfg.SubnetCIDR,
		SSHSourceCIDR: cfg.SSHSourceCIDR,
		MachineType:   cfg.MachineType,
		BootDiskGB:    cfg.BootDiskGB,
		StartupScript: vmStartupScript,
	}
}

// outputLines formats the stack outputs for display. The SSH source range
// is sensitive and is deliberately not part of the outputs.
func outputLines(outs infra.Outputs) []string {
	var lines []string
	if outs.InstanceName != "" {
		lines = append(lines, "instance_name:      "+outs.InstanceName)
	}
	if outs.InstancePublicIP != "" {
		lines = append(lines, "instance_public_ip: "+outs.InstancePublicIP)
	}
	return lines
}

func orDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}
