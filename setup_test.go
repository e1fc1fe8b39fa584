package main

import "testing"

func TestFindOption(t *testing.T) {
	options := []string{"a", "b", "c"}

	tests := []struct {
		name     string
		val      string
		fallback int
		want     int
	}{
		{name: "found", val: "b", fallback: 0, want: 1},
		{name: "missing uses fallback", val: "z", fallback: 2, want: 2},
		{name: "first", val: "a", fallback: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findOption(options, tt.val, tt.fallback); got != tt.want {
				t.Errorf("findOption(%q) = %d, want %d", tt.val, got, tt.want)
			}
		})
	}
}

func TestDefaultsArePresentInOptionLists(t *testing.T) {
	if findOption(machineTypeOptions, "e2-standard-4", -1) == -1 {
		t.Error("default machine type not in machineTypeOptions")
	}
	if findOption(zoneOptions, "asia-southeast1-a", -1) == -1 {
		t.Error("default zone not in zoneOptions")
	}
}
