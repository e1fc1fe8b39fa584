package main

import (
	"strings"
	"testing"
)

func TestStartupScriptEmbedded(t *testing.T) {
	if !strings.HasPrefix(vmStartupScript, "#!/bin/bash") {
		t.Error("startup script must start with a bash shebang")
	}

	// The guest writes its outcome to one of two fixed paths; nothing else
	// reads them automatically, so the paths are load-bearing.
	for _, want := range []string{
		"/var/log/llm_setup_success.log",
		"/var/log/llm_setup_error.log",
		"TinyLlama/TinyLlama-1.1B-Chat-v1.0",
		"/opt/llm/inference.py",
	} {
		if !strings.Contains(vmStartupScript, want) {
			t.Errorf("startup script missing %q", want)
		}
	}

	// One-shot by design: no service unit, no restart loop.
	for _, reject := range []string{"systemctl enable", "while true"} {
		if strings.Contains(vmStartupScript, reject) {
			t.Errorf("startup script unexpectedly contains %q", reject)
		}
	}
}
