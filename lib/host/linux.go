// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Commands names the programs Linux runs for each capability. Each
// entry is an argv; the first element is resolved through PATH.
type Commands struct {
	// ChangePassword receives "username:password\n" on stdin, as
	// chpasswd(8) expects.
	ChangePassword []string

	BlockNetwork []string
	AllowNetwork []string
	SyncClock    []string

	// Shutdown, when empty, powers off with the reboot(2) syscall
	// after syncing filesystems.
	Shutdown []string
}

// DefaultCommands targets a NetworkManager + chrony system.
func DefaultCommands() Commands {
	return Commands{
		ChangePassword: []string{"chpasswd"},
		BlockNetwork:   []string{"nmcli", "networking", "off"},
		AllowNetwork:   []string{"nmcli", "networking", "on"},
		SyncClock:      []string{"chronyc", "makestep"},
	}
}

// Linux implements Capabilities by running external commands.
type Linux struct {
	commands Commands
	logger   *slog.Logger

	// powerOff is the syscall path for Shutdown; replaced in tests.
	powerOff func() error
}

// NewLinux returns a Linux host using commands.
func NewLinux(commands Commands, logger *slog.Logger) *Linux {
	return &Linux{
		commands: commands,
		logger:   logger,
		powerOff: rebootPowerOff,
	}
}

func rebootPowerOff() error {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("reboot(POWER_OFF): %w", err)
	}
	return nil
}

func (l *Linux) ShutdownDevice(ctx context.Context) error {
	l.logger.Warn("powering off device")
	if len(l.commands.Shutdown) == 0 {
		return l.powerOff()
	}
	return l.run(ctx, "shutdown", l.commands.Shutdown, nil)
}

func (l *Linux) BlockNetwork(ctx context.Context) error {
	l.logger.Info("blocking network access")
	return l.run(ctx, "block network", l.commands.BlockNetwork, nil)
}

func (l *Linux) AllowNetwork(ctx context.Context) error {
	l.logger.Info("allowing network access")
	return l.run(ctx, "allow network", l.commands.AllowNetwork, nil)
}

func (l *Linux) ChangeUserPassword(ctx context.Context, username, password string) error {
	if username == "" || strings.ContainsAny(username, ":\n") {
		return fmt.Errorf("change password: invalid username %q", username)
	}
	if strings.Contains(password, "\n") {
		return fmt.Errorf("change password for %s: password contains a newline", username)
	}
	l.logger.Info("changing user password", "username", username)
	input := []byte(username + ":" + password + "\n")
	return l.run(ctx, "change password for "+username, l.commands.ChangePassword, input)
}

func (l *Linux) SyncSystemClock(ctx context.Context) error {
	l.logger.Info("syncing system clock")
	return l.run(ctx, "sync clock", l.commands.SyncClock, nil)
}

// run executes argv, feeding stdin if non-nil. Failures include the
// command's combined output.
func (l *Linux) run(ctx context.Context, operation string, argv []string, stdin []byte) error {
	if len(argv) == 0 {
		return fmt.Errorf("%s: no command configured", operation)
	}
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != nil {
		command.Stdin = bytes.NewReader(stdin)
	}
	output, err := command.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed == "" {
			return fmt.Errorf("%s: %s: %w", operation, argv[0], err)
		}
		return fmt.Errorf("%s: %s: %w: %s", operation, argv[0], err, trimmed)
	}
	return nil
}

var _ Capabilities = (*Linux)(nil)
