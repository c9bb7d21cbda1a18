// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package discipline

import (
	"fmt"
	"strings"

	"github.com/discipline-project/discipline/lib/chrono"
)

// RenderText describes the current state for the debug surface. It
// does not evaluate any indicator, so countdowns are left untouched.
func (d *Discipline) RenderText() string {
	var builder strings.Builder

	now := d.now()
	fmt.Fprintf(&builder, "now: %s (%s)\n", now, now.Weekday())
	if last := d.timeSync.Last(); last.IsZero() {
		builder.WriteString("last clock sync: never\n")
	} else {
		fmt.Fprintf(&builder, "last clock sync: %s\n", chrono.FromTime(last))
	}

	d.deviceMu.Lock()
	fmt.Fprintf(&builder, "\ndevice access\n  block: %s\n", d.device.BlockIndicator)
	d.deviceMu.Unlock()

	d.networkMu.Lock()
	fmt.Fprintf(&builder, "\nnetwork access\n  allowed: %t\n  block: %s\n",
		d.network.Allowed, d.network.BlockIndicator)
	d.networkMu.Unlock()

	d.userMu.Lock()
	fmt.Fprintf(&builder, "\nuser access (%s)\n  blocked: %t\n  block: %s\n",
		d.user.Username, d.user.Blocked, d.user.BlockIndicator)
	d.userMu.Unlock()

	return builder.String()
}
