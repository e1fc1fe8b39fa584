package main

import (
	"testing"

	"cloud.google.com/go/compute/apiv1/computepb"
)

func strPtr(s string) *string { return &s }

func TestExternalIP(t *testing.T) {
	tests := []struct {
		name     string
		instance *computepb.Instance
		want     string
	}{
		{
			name: "assigned",
			instance: &computepb.Instance{
				NetworkInterfaces: []*computepb.NetworkInterface{
					{
						AccessConfigs: []*computepb.AccessConfig{
							{NatIP: strPtr("203.0.113.10")},
						},
					},
				},
			},
			want: "203.0.113.10",
		},
		{
			name: "no access config yet",
			instance: &computepb.Instance{
				NetworkInterfaces: []*computepb.NetworkInterface{{}},
			},
			want: "",
		},
		{
			name:     "no interfaces",
			instance: &computepb.Instance{},
			want:     "",
		},
		{
			name: "access config without nat ip",
			instance: &computepb.Instance{
				NetworkInterfaces: []*computepb.NetworkInterface{
					{
						AccessConfigs: []*computepb.AccessConfig{{}},
					},
				},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := externalIP(tt.instance); got != tt.want {
				t.Errorf("externalIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
