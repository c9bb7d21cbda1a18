// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package discipline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/clock"
	"github.com/discipline-project/discipline/lib/debugserver"
	"github.com/discipline-project/discipline/lib/indicator"
	"github.com/discipline-project/discipline/lib/policy"
	"github.com/discipline-project/discipline/lib/regulator"
	"github.com/discipline-project/discipline/lib/statefile"
	"github.com/discipline-project/discipline/lib/testutil"
)

// The debug server drives a Discipline directly.
var _ debugserver.Target = (*Discipline)(nil)

// fakeHost records capability calls and fails operations on demand.
// Calls are also published on events for tests that run the loop.
type fakeHost struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]error
	events   chan string
}

func newFakeHost() *fakeHost {
	return &fakeHost{failures: make(map[string]error), events: make(chan string, 256)}
}

func (f *fakeHost) record(operation, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	err := f.failures[operation]
	f.mu.Unlock()

	select {
	case f.events <- call:
	default:
	}
	return err
}

func (f *fakeHost) fail(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, operation)
		return
	}
	f.failures[operation] = err
}

// takeCalls returns and clears the recorded calls.
func (f *fakeHost) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func (f *fakeHost) ShutdownDevice(context.Context) error {
	return f.record("shutdown", "shutdown")
}
func (f *fakeHost) BlockNetwork(context.Context) error {
	return f.record("block network", "block network")
}
func (f *fakeHost) AllowNetwork(context.Context) error {
	return f.record("allow network", "allow network")
}
func (f *fakeHost) ChangeUserPassword(_ context.Context, username, password string) error {
	return f.record("password", "password "+username+" "+password)
}
func (f *fakeHost) SyncSystemClock(context.Context) error {
	return f.record("sync clock", "sync clock")
}

// monday is 2026-03-02 in the engine's zone.
func at(dayOffset, hour, minute int) time.Time {
	return time.Date(2026, 3, 2+dayOffset, hour, minute, 0, 0, chrono.Zone())
}

func always() *indicator.Indicator {
	return indicator.WeekdayRange(chrono.Sunday, chrono.Saturday)
}

func never() *indicator.Indicator {
	return indicator.Or()
}

func mustTime(value string) chrono.Time {
	parsed, err := chrono.ParseTime(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

type blocks struct {
	user, network, device *indicator.Indicator
}

func snapshotOf(b blocks) *statefile.Snapshot {
	return &statefile.Snapshot{
		PrivatePassword: "private",
		UserAccess:      regulator.NewUserAccess("alice", "normal", b.user),
		NetworkAccess:   regulator.NewNetworkAccess(b.network),
		DeviceAccess:    regulator.NewDeviceAccess(b.device),
	}
}

type fixture struct {
	discipline *Discipline
	host       *fakeHost
	clock      *clock.FakeClock
	path       string
}

func newFixture(t *testing.T, start time.Time, b blocks) *fixture {
	t.Helper()
	f := &fixture{
		host:  newFakeHost(),
		clock: clock.Fake(start),
		path:  filepath.Join(t.TempDir(), "state.cbor"),
	}
	var err error
	f.discipline, err = Open(context.Background(), Config{
		Path:        f.path,
		Initializer: func(string) (*statefile.Snapshot, error) { return snapshotOf(b), nil },
		Host:        f.host,
		Clock:       f.clock,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return f
}

func (f *fixture) load(t *testing.T) *statefile.Snapshot {
	t.Helper()
	snapshot, err := statefile.Load(f.path, statefile.Options{})
	if err != nil {
		t.Fatalf("loading saved state: %v", err)
	}
	return snapshot
}

func expectCalls(t *testing.T, host *fakeHost, want ...string) {
	t.Helper()
	got := host.takeCalls()
	if !slices.Equal(got, want) {
		t.Errorf("host calls = %q, want %q", got, want)
	}
}

func TestOpenInitializesAndSaves(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{never(), never(), never()})
	expectCalls(t, f.host)

	snapshot := f.load(t)
	if snapshot.UserAccess.Username != "alice" || snapshot.PrivatePassword != "private" {
		t.Errorf("saved snapshot = %+v", snapshot)
	}
}

func TestOpenLoadsExistingState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	saved := snapshotOf(blocks{always(), never(), never()})
	saved.UserAccess.Blocked = true
	if err := statefile.Save(path, saved, statefile.Options{}); err != nil {
		t.Fatal(err)
	}

	host := newFakeHost()
	d, err := Open(context.Background(), Config{
		Path: path,
		Initializer: func(string) (*statefile.Snapshot, error) {
			t.Error("Initializer called although a state file exists")
			return nil, errors.New("unexpected")
		},
		Host:  host,
		Clock: clock.Fake(at(0, 12, 0)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// The cached flag says the block is already applied.
	if err := d.SyncUserAccess(context.Background()); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, host)
}

func TestOpenErrors(t *testing.T) {
	directory := t.TempDir()
	corrupt := filepath.Join(directory, "corrupt.cbor")
	if err := os.WriteFile(corrupt, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	initializerCalled := false
	initializer := func(string) (*statefile.Snapshot, error) {
		initializerCalled = true
		return snapshotOf(blocks{never(), never(), never()}), nil
	}

	tests := []struct {
		name        string
		config      Config
		wantMissing bool
	}{
		{
			name:   "corrupt state file",
			config: Config{Path: corrupt, Initializer: initializer},
		},
		{
			name:        "missing state without initializer",
			config:      Config{Path: filepath.Join(directory, "absent.cbor")},
			wantMissing: true,
		},
		{
			name: "initializer failure",
			config: Config{
				Path: filepath.Join(directory, "absent.cbor"),
				Initializer: func(string) (*statefile.Snapshot, error) {
					return nil, errors.New("policy unreadable")
				},
			},
		},
		{
			name: "initializer returns incomplete snapshot",
			config: Config{
				Path: filepath.Join(directory, "absent.cbor"),
				Initializer: func(string) (*statefile.Snapshot, error) {
					return &statefile.Snapshot{PrivatePassword: "p"}, nil
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.config.Host = newFakeHost()
			test.config.Clock = clock.Fake(at(0, 12, 0))
			_, err := Open(context.Background(), test.config)
			if err == nil {
				t.Fatal("Open succeeded")
			}
			if got := errors.Is(err, os.ErrNotExist); got != test.wantMissing {
				t.Errorf("errors.Is(err, os.ErrNotExist) = %v for %v", got, err)
			}
		})
	}
	if initializerCalled {
		t.Error("Initializer called for a corrupt state file")
	}
	if _, err := os.Stat(filepath.Join(directory, "absent.cbor")); !errors.Is(err, os.ErrNotExist) {
		t.Error("a failed initialization left a state file behind")
	}
}

func TestSyncAllOrder(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{always(), always(), always()})

	if err := f.discipline.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	expectCalls(t, f.host, "shutdown", "block network", "password alice private")

	snapshot := f.load(t)
	if !snapshot.UserAccess.Blocked || snapshot.NetworkAccess.Allowed {
		t.Errorf("saved flags: blocked=%v allowed=%v", snapshot.UserAccess.Blocked, snapshot.NetworkAccess.Allowed)
	}
}

func TestSyncAllShortCircuits(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		wantCalls []string
	}{
		{"device failure", "shutdown", []string{"shutdown"}},
		{"network failure", "block network", []string{"shutdown", "block network"}},
		{"user failure", "password", []string{"shutdown", "block network", "password alice private"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(t, at(0, 12, 0), blocks{always(), always(), always()})
			f.host.fail(test.operation, errors.New("host refused"))

			err := f.discipline.SyncAll(context.Background())
			if err == nil || !strings.Contains(err.Error(), "host refused") {
				t.Fatalf("SyncAll error = %v, want host refusal", err)
			}
			expectCalls(t, f.host, test.wantCalls...)

			// Nothing is saved after a failure, even for regulators
			// that synced before it.
			snapshot := f.load(t)
			if snapshot.UserAccess.Blocked || !snapshot.NetworkAccess.Allowed {
				t.Errorf("state saved despite failure: blocked=%v allowed=%v",
					snapshot.UserAccess.Blocked, snapshot.NetworkAccess.Allowed)
			}
		})
	}
}

func TestUserAccessTimeRangeScenario(t *testing.T) {
	block := indicator.TimeRange(mustTime("22:00"), mustTime("23:59"))
	f := newFixture(t, at(0, 21, 59), blocks{block, never(), never()})
	ctx := context.Background()

	steps := []struct {
		at          time.Time
		wantCalls   []string
		wantBlocked bool
	}{
		{at(0, 21, 59), nil, false},
		{at(0, 22, 0), []string{"password alice private"}, true},
		{at(0, 23, 0), nil, true},
		{at(0, 23, 59), nil, true},
		{at(1, 0, 0), []string{"password alice normal"}, false},
		{at(1, 0, 1), nil, false},
	}
	for _, step := range steps {
		f.clock.Set(step.at)
		if err := f.discipline.SyncUserAccess(ctx); err != nil {
			t.Fatalf("%s: SyncUserAccess: %v", step.at.Format(time.Kitchen), err)
		}
		expectCalls(t, f.host, step.wantCalls...)
		if got := f.load(t).UserAccess.Blocked; got != step.wantBlocked {
			t.Errorf("%s: saved Blocked = %v, want %v", step.at.Format(time.Kitchen), got, step.wantBlocked)
		}
	}
}

func TestCountdownScenarioResistsClockTampering(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{indicator.Countdown(chrono.Minutes(10)), never(), never()})
	ctx := context.Background()

	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice private")

	f.clock.Advance(5 * time.Minute)
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}

	// Winding the clock back an hour must not earn more blocked time,
	// nor refund the elapsed five minutes.
	f.clock.Set(at(0, 11, 5))
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.load(t).UserAccess.BlockIndicator.Remaining(); got != chrono.Minutes(5) {
		t.Errorf("remaining after rewind = %v, want 5m", got)
	}
	expectCalls(t, f.host)

	f.clock.Advance(5 * time.Minute)
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice normal")

	// Exhausted countdowns stay exhausted.
	f.clock.Set(at(0, 8, 0))
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host)
}

func TestNetworkRetriesAfterFailure(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{never(), always(), never()})
	ctx := context.Background()

	f.host.fail("block network", errors.New("nmcli: not running"))
	if err := f.discipline.SyncNetworkAccess(ctx); err == nil {
		t.Fatal("SyncNetworkAccess succeeded despite host failure")
	}
	expectCalls(t, f.host, "block network")
	if !f.load(t).NetworkAccess.Allowed {
		t.Error("failed block flipped the Allowed flag")
	}

	f.host.fail("block network", nil)
	if err := f.discipline.SyncNetworkAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "block network")
	if f.load(t).NetworkAccess.Allowed {
		t.Error("successful block did not clear the Allowed flag")
	}

	if err := f.discipline.SyncNetworkAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host)
}

func TestDeviceShutdownRepeats(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{never(), never(), always()})
	ctx := context.Background()
	for range 3 {
		if err := f.discipline.SyncDeviceAccess(ctx); err != nil {
			t.Fatal(err)
		}
	}
	expectCalls(t, f.host, "shutdown", "shutdown", "shutdown")
}

func TestSyncTimeIsRateLimited(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{never(), never(), never()})
	ctx := context.Background()

	steps := []struct {
		advance       time.Duration
		wantPerformed bool
	}{
		{0, true},
		{time.Minute, false},
		{4*time.Minute + 2*time.Second, true},
		{time.Second, false},
	}
	for index, step := range steps {
		f.clock.Advance(step.advance)
		performed, err := f.discipline.SyncTime(ctx)
		if err != nil {
			t.Fatalf("step %d: %v", index, err)
		}
		if performed != step.wantPerformed {
			t.Errorf("step %d: performed = %v, want %v", index, performed, step.wantPerformed)
		}
	}
}

func TestExtendCountdowns(t *testing.T) {
	block := indicator.And(
		indicator.Countdown(0),
		indicator.Or(indicator.Countdown(chrono.Minutes(1))),
	)
	f := newFixture(t, at(0, 12, 0), blocks{block, never(), never()})
	ctx := context.Background()

	// An exhausted countdown keeps the And inactive.
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host)

	extended, err := f.discipline.ExtendCountdowns(chrono.Minutes(30))
	if err != nil {
		t.Fatalf("ExtendCountdowns: %v", err)
	}
	if extended != 2 {
		t.Errorf("extended %d countdowns, want 2", extended)
	}

	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice private")

	saved := f.load(t).UserAccess.BlockIndicator.String()
	if want := "all(countdown(30m0s left), any(countdown(31m0s left)))"; saved != want {
		t.Errorf("saved indicator = %s, want %s", saved, want)
	}
}

func TestExtendCountdownsOverflowChangesNothing(t *testing.T) {
	tree := indicator.Or(
		indicator.Countdown(chrono.Minutes(1)),
		indicator.Countdown(chrono.Milliseconds(chrono.MaxSafeInteger)),
	)
	_, err := ExtendCountdowns(tree, chrono.Seconds(1))
	if !errors.Is(err, chrono.ErrOverflow) {
		t.Fatalf("ExtendCountdowns error = %v, want ErrOverflow", err)
	}
	if got := tree.Items()[0].Remaining(); got != chrono.Minutes(1) {
		t.Errorf("first countdown changed to %v after a failed extension", got)
	}
}

func TestClearUserCache(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{always(), never(), never()})
	ctx := context.Background()

	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice private")

	if err := f.discipline.ClearUserCache(); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host)
	if f.load(t).UserAccess.Blocked {
		t.Error("ClearUserCache did not persist")
	}

	// The block is reapplied on the next sync.
	if err := f.discipline.SyncUserAccess(ctx); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice private")
}

func TestRenderText(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{
		indicator.Countdown(chrono.Hours(1)),
		indicator.HourRange(chrono.AM(1), chrono.AM(5)),
		never(),
	})

	text := f.discipline.RenderText()
	for _, want := range []string{
		"now: 2026-03-02T12:00:00+03:00 (Monday)",
		"last clock sync: never",
		"user access (alice)",
		"blocked: false",
		"countdown(1h0m0s left)",
		"allowed: true",
		"hours(01..05)",
		"block: any()",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("RenderText missing %q:\n%s", want, text)
		}
	}

	// Rendering must not consume countdown time.
	f.clock.Advance(time.Hour)
	f.discipline.RenderText()
	if err := f.discipline.SyncUserAccess(context.Background()); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, f.host, "password alice private")
}

func TestRunLoops(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{always(), always(), always()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.discipline.Run(ctx) }()

	// The initial SyncAll completes before the tickers exist.
	f.clock.WaitForTimers(3)
	for _, want := range []string{"shutdown", "block network", "password alice private"} {
		if got := testutil.RequireReceive(t, f.host.events, 5*time.Second, "initial sync"); got != want {
			t.Fatalf("initial sync call = %q, want %q", got, want)
		}
	}

	// First device tick: clock sync, then shutdown.
	f.clock.Advance(5 * time.Second)
	for _, want := range []string{"sync clock", "shutdown"} {
		if got := testutil.RequireReceive(t, f.host.events, 5*time.Second, "first device tick"); got != want {
			t.Fatalf("first device tick call = %q, want %q", got, want)
		}
	}

	// Second device tick: the clock sync is rate limited.
	f.clock.Advance(5 * time.Second)
	if got := testutil.RequireReceive(t, f.host.events, 5*time.Second, "second device tick"); got != "shutdown" {
		t.Fatalf("second device tick call = %q, want shutdown", got)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Run to return"); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if pending := f.clock.PendingCount(); pending != 0 {
		t.Errorf("%d tickers still registered after Run returned", pending)
	}
}

func TestRunContinuesAfterErrors(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{never(), never(), always()})
	f.host.fail("shutdown", errors.New("permission denied"))
	f.host.fail("sync clock", errors.New("chronyd not running"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.discipline.Run(ctx) }()

	f.clock.WaitForTimers(3)
	if got := testutil.RequireReceive(t, f.host.events, 5*time.Second, "initial sync"); got != "shutdown" {
		t.Fatalf("initial call = %q", got)
	}

	// A failed clock sync returns its token, so every tick retries it.
	for tick := range 2 {
		f.clock.Advance(5 * time.Second)
		for _, want := range []string{"sync clock", "shutdown"} {
			if got := testutil.RequireReceive(t, f.host.events, 5*time.Second, "device tick %d", tick); got != want {
				t.Fatalf("device tick %d call = %q, want %q", tick, got, want)
			}
		}
	}

	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "waiting for Run to return")
}

func TestConcurrentTriggers(t *testing.T) {
	f := newFixture(t, at(0, 12, 0), blocks{always(), always(), never()})
	ctx := context.Background()

	var group sync.WaitGroup
	for range 8 {
		group.Add(4)
		go func() {
			defer group.Done()
			if err := f.discipline.SyncUserAccess(ctx); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer group.Done()
			if err := f.discipline.SyncNetworkAccess(ctx); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer group.Done()
			if err := f.discipline.SyncDeviceAccess(ctx); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer group.Done()
			f.discipline.RenderText()
		}()
	}
	group.Wait()

	// Each regulator's flag is checked and set under its lock, so the
	// block is applied exactly once no matter how triggers interleave.
	calls := f.host.takeCalls()
	slices.Sort(calls)
	want := []string{"block network", "password alice private"}
	if !slices.Equal(calls, want) {
		t.Errorf("host calls = %q, want %q", calls, want)
	}
}

func TestPolicyInitializer(t *testing.T) {
	directory := t.TempDir()
	policyPath := testutil.WriteFile(t, filepath.Join(directory, "policy.jsonc"), `{
		// Blocked every evening.
		"user": {"username": "alice", "password": "normal",
		         "block": {"time_range": {"from": "20:00", "till": "23:59"}}},
	}`)

	host := newFakeHost()
	statePath := filepath.Join(directory, "state.cbor")
	d, err := Open(context.Background(), Config{
		Path:        statePath,
		Initializer: PolicyInitializer(policyPath),
		Host:        host,
		Clock:       clock.Fake(at(0, 21, 0)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.SyncAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := host.takeCalls()
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "password alice ") || calls[0] == "password alice normal" {
		t.Fatalf("host calls = %q, want one password change to a private password", calls)
	}

	snapshot, err := statefile.Load(statePath, statefile.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot.PrivatePassword) < 32 {
		t.Errorf("private password %q is too short", snapshot.PrivatePassword)
	}
	if calls[0] != "password alice "+snapshot.PrivatePassword {
		t.Errorf("applied %q, saved private password %q", calls[0], snapshot.PrivatePassword)
	}
}

func TestPolicyInitializerMissingPolicy(t *testing.T) {
	directory := t.TempDir()
	_, err := Open(context.Background(), Config{
		Path:        filepath.Join(directory, "state.cbor"),
		Initializer: PolicyInitializer(filepath.Join(directory, "absent.jsonc")),
		Host:        newFakeHost(),
	})
	if err == nil {
		t.Fatal("Open succeeded without a policy")
	}
}

func TestSnapshotFromPolicyRequiresPassword(t *testing.T) {
	parsed, err := policy.Parse([]byte(`{"user": {"username": "alice"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SnapshotFromPolicy(parsed); !errors.Is(err, ErrNoPassword) {
		t.Errorf("SnapshotFromPolicy error = %v, want ErrNoPassword", err)
	}

	parsed.Password = "typed at the terminal"
	snapshot, err := SnapshotFromPolicy(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.UserAccess.Password != "typed at the terminal" {
		t.Errorf("snapshot password = %q", snapshot.UserAccess.Password)
	}
}

func TestNewPrivatePasswordIsRandom(t *testing.T) {
	first, err := NewPrivatePassword()
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewPrivatePassword()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two private passwords are identical")
	}
	if strings.ContainsAny(first, ":\n") {
		t.Errorf("private password %q contains a chpasswd separator", first)
	}
}
