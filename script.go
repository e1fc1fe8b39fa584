package main

import _ "embed"

// vmStartupScript is passed to the instance as startup-script metadata and
// executed once by the guest OS at first boot.
//
//go:embed scripts/startup.sh
var vmStartupScript string
