package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/chiangyaw/gcp-ai-vm-infra/tui/assets"
)

// Colors matching the TUI palette.
var (
	setupCyan  = lipgloss.Color("#22d3ee")
	setupGreen = lipgloss.Color("#4ade80")
	setupGray  = lipgloss.Color("#6b7280")
	setupDim   = lipgloss.Color("#374151")
	setupRed   = lipgloss.Color("#f87171")
)

// General-purpose shapes that fit a small CPU inference workload.
var machineTypeOptions = []string{
	"e2-standard-2",  // 2 vCPU, 8 GB
	"e2-standard-4",  // 4 vCPU, 16 GB
	"e2-standard-8",  // 8 vCPU, 32 GB
	"e2-highmem-4",   // 4 vCPU, 32 GB
	"n2-standard-4",  // 4 vCPU, 16 GB
	"n2-standard-8",  // 8 vCPU, 32 GB
	"c3-standard-4",  // 4 vCPU, 16 GB
}

var zoneOptions = []string{
	"asia-southeast1-a", "asia-southeast1-b", "asia-southeast1-c",
	"asia-east1-a", "asia-east1-b",
	"asia-northeast1-a", "asia-northeast1-b",
	"us-central1-a", "us-central1-b", "us-central1-c",
	"us-east1-b", "us-east1-c",
	"us-west1-a", "us-west1-b",
	"europe-west1-b", "europe-west1-c",
	"europe-west4-a", "europe-west4-b",
}

const selectMaxVisible = 10

// sectionHeader prints a bold cyan label with a dim rule line.
func sectionHeader(label string) {
	styled := lipgloss.NewStyle().Bold(true).Foreground(setupCyan).Render(label)
	ruleLen := 40 - len(label) - 1
	if ruleLen < 4 {
		ruleLen = 4
	}
	rule := lipgloss.NewStyle().Foreground(setupDim).Render(strings.Repeat("\u2500", ruleLen))
	fmt.Printf("\n  \u2500\u2500 %s %s\n", styled, rule)
}

// promptSelect shows an arrow-key navigable list and returns the chosen option.
// Falls back to numbered input if the terminal doesn't support raw mode.
func promptSelect(label string, options []string, defaultIdx int) string {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return promptSelectFallback(label, options, defaultIdx)
	}

	selected := defaultIdx
	viewSize := min(selectMaxVisible, len(options))
	scrollable := len(options) > viewSize
	offset := 0

	// Ensure selected item is initially visible
	if selected >= viewSize {
		offset = selected - viewSize + 1
	}

	adjustScroll := func() {
		if selected < offset {
			offset = selected
		}
		if selected >= offset+viewSize {
			offset = selected - viewSize + 1
		}
	}

	// Fixed number of rendered lines for stable re-rendering
	totalLines := viewSize
	if scrollable {
		totalLines += 2 // top + bottom scroll indicators
	}

	dim := lipgloss.NewStyle().Foreground(setupDim)
	cur := lipgloss.NewStyle().Foreground(setupCyan).Bold(true)
	act := lipgloss.NewStyle().Foreground(setupCyan)
	inact := lipgloss.NewStyle().Foreground(setupGray)

	// Label line (printed once, above the redrawn region)
	fmt.Printf("  %s  %s\r\n", label, dim.Render("↑/↓ select, Enter confirm"))

	render := func(first bool) {
		if !first {
			fmt.Printf("\x1b[%dA", totalLines)
		}

		if scrollable {
			fmt.Print("\x1b[2K")
			if above := offset; above > 0 {
				fmt.Printf("    %s\r\n", dim.Render(fmt.Sprintf("↑ %d more", above)))
			} else {
				fmt.Print("\r\n")
			}
		}

		for i := offset; i < offset+viewSize && i < len(options); i++ {
			fmt.Print("\x1b[2K")
			if i == selected {
				fmt.Printf("    %s %s\r\n", cur.Render("›"), act.Render(options[i]))
			} else {
				fmt.Printf("      %s\r\n", inact.Render(options[i]))
			}
		}

		if scrollable {
			fmt.Print("\x1b[2K")
			if below := len(options) - offset - viewSize; below > 0 {
				fmt.Printf("    %s\r\n", dim.Render(fmt.Sprintf("↓ %d more", below)))
			} else {
				fmt.Print("\r\n")
			}
		}
	}

	render(true)

	// Read input
	buf := make([]byte, 3)
	for {
		n, readErr := os.Stdin.Read(buf[:1])
		if readErr != nil || n == 0 {
			break
		}

		switch buf[0] {
		case '\r', '\n': // Enter
			// Collapse list into single result line
			_ = term.Restore(fd, oldState)
			fmt.Printf("\x1b[%dA", totalLines+1) // move up past list + label
			fmt.Print("\x1b[J")                  // clear to end of screen
			fmt.Printf("  %s: %s\n", label, act.Render(options[selected]))
			return options[selected]

		case 3: // Ctrl+C
			_ = term.Restore(fd, oldState)
			fmt.Print("\r\n")
			os.Exit(1)

		case 'j': // vim down
			if selected < len(options)-1 {
				selected++
			}
			adjustScroll()
			render(false)

		case 'k': // vim up
			if selected > 0 {
				selected--
			}
			adjustScroll()
			render(false)

		case '\x1b': // Escape sequence
			n2, _ := os.Stdin.Read(buf[1:3])
			if n2 == 2 && buf[1] == '[' {
				switch buf[2] {
				case 'A': // Up
					if selected > 0 {
						selected--
					}
				case 'B': // Down
					if selected < len(options)-1 {
						selected++
					}
				}
				adjustScroll()
				render(false)
			}
		}
	}

	_ = term.Restore(fd, oldState)
	return options[selected]
}

// promptSelectFallback is a numbered-input fallback when raw mode is unavailable.
func promptSelectFallback(label string, options []string, defaultIdx int) string {
	num := lipgloss.NewStyle().Foreground(setupCyan)
	dim := lipgloss.NewStyle().Foreground(setupDim)

	fmt.Printf("  %s:\n", label)
	for i, opt := range options {
		n := num.Render(fmt.Sprintf("%d)", i+1))
		if i == defaultIdx {
			fmt.Printf("    %s %s %s\n", n, opt, dim.Render("(default)"))
		} else {
			fmt.Printf("    %s %s\n", n, opt)
		}
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("  Choice [%s]: ", num.Render(strconv.Itoa(defaultIdx+1)))
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return options[defaultIdx]
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(options) {
		return options[defaultIdx]
	}
	return options[idx-1]
}

// findOption returns the index of val in options, or fallback if not found.
func findOption(options []string, val string, fallback int) int {
	for i, opt := range options {
		if opt == val {
			return i
		}
	}
	return fallback
}

// promptCIDR prompts until the input parses as a CIDR range.
func promptCIDR(label, defaultVal string) string {
	errStyle := lipgloss.NewStyle().Foreground(setupRed)
	for {
		val := promptString(label, defaultVal)
		if val == "" {
			fmt.Println(errStyle.Render("  A CIDR range is required (e.g. 203.0.113.5/32)"))
			continue
		}
		if _, _, err := net.ParseCIDR(val); err != nil {
			fmt.Println(errStyle.Render("  Not a valid CIDR range: " + val))
			continue
		}
		if val == "0.0.0.0/0" {
			fmt.Println(errStyle.Render("  SSH is only ever opened to your own range, not 0.0.0.0/0"))
			continue
		}
		return val
	}
}

// runInteractiveSetup runs the interactive setup with styled output.
// firstRun=true shows "First-time setup"; false shows "Reconfigure".
func runInteractiveSetup(firstRun bool) {
	logo := lipgloss.NewStyle().Foreground(setupCyan).Render(assets.Logo)
	fmt.Println(logo)
	fmt.Println()

	subtitle := "Reconfigure"
	if firstRun {
		subtitle = "First-time setup"
	}
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(setupGreen).Render("     GCP AI VM Infra"))
	fmt.Println(lipgloss.NewStyle().Foreground(setupGray).Render("     " + subtitle))
	fmt.Println(lipgloss.NewStyle().Foreground(setupDim).Render("     Press Enter to accept defaults"))

	// ── Project ──────────────────────────
	sectionHeader("Project")

	// cfg.ProjectID may already be set by inferProjectID() in main.go
	if cfg.ProjectID != "" {
		msg := fmt.Sprintf("  \u2713 Detected project from gcloud: %s", cfg.ProjectID)
		fmt.Println(lipgloss.NewStyle().Foreground(setupGreen).Render(msg))
	}

	for {
		cfg.ProjectID = promptString("GCP Project ID", cfg.ProjectID)
		if cfg.ProjectID != "" {
			break
		}
		fmt.Println(lipgloss.NewStyle().Foreground(setupRed).Render("  Project ID is required"))
	}

	// ── Compute ──────────────────────────
	sectionHeader("Compute")

	mtDefault := orDefault(cfg.MachineType, "e2-standard-4")
	cfg.MachineType = promptSelect("Machine type", machineTypeOptions, findOption(machineTypeOptions, mtDefault, 0))

	zoneDefault := orDefault(cfg.Zone, "asia-southeast1-a")
	cfg.Zone = promptSelect("Zone", zoneOptions, findOption(zoneOptions, zoneDefault, 0))
	cfg.Region = regionFromZone(cfg.Zone)

	cfg.VMName = promptString("VM name", orDefault(cfg.VMName, "tinylama-vm"))

	// ── Networking ───────────────────────
	sectionHeader("Networking")

	cfg.Network = promptString("VPC network", orDefault(cfg.Network, "llm-vpc-network"))
	cfg.Subnet = promptString("Subnet name", orDefault(cfg.Subnet, cfg.Network+"-subnet"))
	cfg.SubnetCIDR = promptCIDR("Subnet CIDR", orDefault(cfg.SubnetCIDR, "10.10.0.0/20"))

	// ── Access ───────────────────────────
	sectionHeader("Access")

	fmt.Println(lipgloss.NewStyle().Foreground(setupGray).Render("  SSH is opened to this range only."))
	cfg.SSHSourceCIDR = promptCIDR("Your SSH source CIDR", cfg.SSHSourceCIDR)

	fmt.Println()
}
