package main

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			want: false,
		},
		{
			name: "401",
			err:  &googleapi.Error{Code: 401},
			want: true,
		},
		{
			name: "403",
			err:  &googleapi.Error{Code: 403},
			want: true,
		},
		{
			name: "404",
			err:  &googleapi.Error{Code: 404},
			want: false,
		},
		{
			name: "wrapped 401",
			err:  fmt.Errorf("failed to get instance: %w", &googleapi.Error{Code: 401}),
			want: true,
		},
		{
			name: "expired oauth token",
			err:  errors.New("oauth2: cannot fetch token: 400 Bad Request"),
			want: true,
		},
		{
			name: "invalid grant",
			err:  errors.New("invalid_grant: reauth related error"),
			want: true,
		},
		{
			name: "unrelated",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAuthError(tt.err); got != tt.want {
				t.Errorf("isAuthError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
