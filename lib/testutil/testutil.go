// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TB is the part of testing.TB the helpers use.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed. what describes the wait
// and may be a format string.
//
//	call := testutil.RequireReceive(t, host.events, 5*time.Second, "device tick %d", n)
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, what string, args ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed", fmt.Sprintf(what, args...))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received after %v", fmt.Sprintf(what, args...), timeout)
	}
	panic("unreachable")
}

// RequireClosed waits for ch to close, failing the test after timeout.
//
//	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "debug server ready")
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, what string, args ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: still open after %v", fmt.Sprintf(what, args...), timeout)
	}
}

// WriteFile writes content to path with mode 0600, creating parent
// directories, and returns path. Tests use it for policy and config
// fixtures.
func WriteFile(t TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
