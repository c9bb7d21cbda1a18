// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChangeUserPasswordFeedsStdin(t *testing.T) {
	output := filepath.Join(t.TempDir(), "chpasswd-input")
	linux := NewLinux(Commands{
		ChangePassword: []string{"sh", "-c", "cat > " + output},
	}, discardLogger())

	if err := linux.ChangeUserPassword(context.Background(), "kid", "s3cret"); err != nil {
		t.Fatalf("ChangeUserPassword: %v", err)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading captured stdin: %v", err)
	}
	if string(content) != "kid:s3cret\n" {
		t.Errorf("stdin = %q, want %q", content, "kid:s3cret\n")
	}
}

func TestChangeUserPasswordRejectsInjection(t *testing.T) {
	linux := NewLinux(Commands{ChangePassword: []string{"true"}}, discardLogger())

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "x"},
		{"colon in username", "kid:root", "x"},
		{"newline in password", "kid", "x\nroot:owned"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := linux.ChangeUserPassword(context.Background(), test.username, test.password); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestCommandFailureIncludesOutput(t *testing.T) {
	linux := NewLinux(Commands{
		BlockNetwork: []string{"sh", "-c", "echo 'nmcli: not authorized' >&2; exit 3"},
	}, discardLogger())

	err := linux.BlockNetwork(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "not authorized") {
		t.Errorf("error %q does not include command output", err)
	}
	if !strings.Contains(err.Error(), "block network") {
		t.Errorf("error %q does not name the operation", err)
	}
}

func TestMissingCommand(t *testing.T) {
	linux := NewLinux(Commands{}, discardLogger())
	if err := linux.AllowNetwork(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured command")
	}
}

func TestSuccessfulCommands(t *testing.T) {
	linux := NewLinux(Commands{
		BlockNetwork: []string{"true"},
		AllowNetwork: []string{"true"},
		SyncClock:    []string{"true"},
		Shutdown:     []string{"true"},
	}, discardLogger())
	ctx := context.Background()

	for name, operation := range map[string]func(context.Context) error{
		"block":    linux.BlockNetwork,
		"allow":    linux.AllowNetwork,
		"clock":    linux.SyncSystemClock,
		"shutdown": linux.ShutdownDevice,
	} {
		if err := operation(ctx); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestShutdownWithoutCommandUsesSyscall(t *testing.T) {
	linux := NewLinux(Commands{}, discardLogger())
	called := false
	linux.powerOff = func() error {
		called = true
		return errors.New("operation not permitted")
	}

	err := linux.ShutdownDevice(context.Background())
	if !called {
		t.Fatal("power-off syscall path not used")
	}
	if err == nil {
		t.Fatal("syscall error not returned")
	}
}

func TestCancelledContextStopsCommand(t *testing.T) {
	linux := NewLinux(Commands{SyncClock: []string{"sleep", "30"}}, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := linux.SyncSystemClock(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
