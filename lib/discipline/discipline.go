// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package discipline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/clock"
	"github.com/discipline-project/discipline/lib/host"
	"github.com/discipline-project/discipline/lib/indicator"
	"github.com/discipline-project/discipline/lib/regulator"
	"github.com/discipline-project/discipline/lib/statefile"
	"github.com/discipline-project/discipline/lib/timesync"
)

// Initializer builds the first snapshot when no state file exists at
// path.
type Initializer func(path string) (*statefile.Snapshot, error)

// Intervals configures the loop cadence. Zero fields take the value
// from DefaultIntervals.
type Intervals struct {
	User     time.Duration
	Network  time.Duration
	Device   time.Duration
	TimeSync time.Duration
}

// DefaultIntervals returns the production cadence.
func DefaultIntervals() Intervals {
	return Intervals{
		User:     5 * time.Minute,
		Network:  time.Minute,
		Device:   5 * time.Second,
		TimeSync: timesync.DefaultInterval,
	}
}

func (i Intervals) withDefaults() Intervals {
	defaults := DefaultIntervals()
	if i.User <= 0 {
		i.User = defaults.User
	}
	if i.Network <= 0 {
		i.Network = defaults.Network
	}
	if i.Device <= 0 {
		i.Device = defaults.Device
	}
	if i.TimeSync <= 0 {
		i.TimeSync = defaults.TimeSync
	}
	return i
}

// Config holds the dependencies of a Discipline.
type Config struct {
	// Path is the state file.
	Path string

	// Initializer is called when Path does not exist. Nil makes a
	// missing state file an error.
	Initializer Initializer

	Host   host.Capabilities
	Clock  clock.Clock
	Logger *slog.Logger

	// StateOptions controls state file sealing.
	StateOptions statefile.Options

	Intervals Intervals
}

// Discipline owns the regulators and drives them against the host.
type Discipline struct {
	path      string
	options   statefile.Options
	host      host.Capabilities
	clock     clock.Clock
	logger    *slog.Logger
	intervals Intervals
	timeSync  *timesync.Syncer

	// privatePassword never changes after Open.
	privatePassword string

	// Lock order: saveMu, deviceMu, networkMu, userMu.
	saveMu    sync.Mutex
	deviceMu  sync.Mutex
	device    *regulator.DeviceAccess
	networkMu sync.Mutex
	network   *regulator.NetworkAccess
	userMu    sync.Mutex
	user      *regulator.UserAccess
}

// Open loads the state file at config.Path. When the file does not
// exist, the Initializer builds a snapshot which is saved immediately.
// Any other load error is returned.
func Open(ctx context.Context, config Config) (*Discipline, error) {
	if config.Host == nil {
		return nil, errors.New("discipline: Host is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	intervals := config.Intervals.withDefaults()
	d := &Discipline{
		path:      config.Path,
		options:   config.StateOptions,
		host:      config.Host,
		clock:     config.Clock,
		logger:    config.Logger,
		intervals: intervals,
		timeSync:  timesync.New(config.Host, config.Clock, intervals.TimeSync),
	}

	snapshot, err := statefile.Load(config.Path, config.StateOptions)
	switch {
	case err == nil:
		d.logger.Info("loaded state", "path", config.Path)
	case errors.Is(err, os.ErrNotExist):
		if config.Initializer == nil {
			return nil, fmt.Errorf("no state file at %s and no initializer: %w", config.Path, err)
		}
		snapshot, err = config.Initializer(config.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing state: %w", err)
		}
		if err := statefile.Save(config.Path, snapshot, config.StateOptions); err != nil {
			return nil, err
		}
		d.logger.Info("initialized state", "path", config.Path)
	default:
		return nil, err
	}

	d.privatePassword = snapshot.PrivatePassword
	d.user = snapshot.UserAccess
	d.network = snapshot.NetworkAccess
	d.device = snapshot.DeviceAccess
	return d, nil
}

func (d *Discipline) now() chrono.DateTime {
	return chrono.FromTime(d.clock.Now())
}

// SyncAll syncs device, network, and user access in that order, then
// saves. The first error stops the sequence and nothing is saved.
func (d *Discipline) SyncAll(ctx context.Context) error {
	if err := d.syncDevice(ctx); err != nil {
		return err
	}
	if err := d.syncNetwork(ctx); err != nil {
		return err
	}
	if err := d.syncUser(ctx); err != nil {
		return err
	}
	return d.save()
}

// SyncUserAccess syncs the user regulator and saves on success.
func (d *Discipline) SyncUserAccess(ctx context.Context) error {
	if err := d.syncUser(ctx); err != nil {
		return err
	}
	return d.save()
}

// SyncNetworkAccess syncs the network regulator and saves on success.
func (d *Discipline) SyncNetworkAccess(ctx context.Context) error {
	if err := d.syncNetwork(ctx); err != nil {
		return err
	}
	return d.save()
}

// SyncDeviceAccess syncs the device regulator and saves on success.
func (d *Discipline) SyncDeviceAccess(ctx context.Context) error {
	if err := d.syncDevice(ctx); err != nil {
		return err
	}
	return d.save()
}

// SyncTime syncs the system clock unless a sync succeeded within the
// time sync interval. Reports whether the host was asked to sync.
func (d *Discipline) SyncTime(ctx context.Context) (bool, error) {
	performed, err := d.timeSync.Sync(ctx)
	if err != nil {
		return false, err
	}
	if performed {
		d.logger.Info("system clock synchronized")
	}
	return performed, nil
}

func (d *Discipline) syncUser(ctx context.Context) error {
	d.userMu.Lock()
	defer d.userMu.Unlock()

	wasBlocked := d.user.Blocked
	if err := d.user.Sync(ctx, d.host, d.now(), d.privatePassword); err != nil {
		return fmt.Errorf("syncing user access: %w", err)
	}
	if d.user.Blocked != wasBlocked {
		d.logger.Info("user access changed", "username", d.user.Username, "blocked", d.user.Blocked)
	}
	return nil
}

func (d *Discipline) syncNetwork(ctx context.Context) error {
	d.networkMu.Lock()
	defer d.networkMu.Unlock()

	wasAllowed := d.network.Allowed
	if err := d.network.Sync(ctx, d.host, d.now()); err != nil {
		return fmt.Errorf("syncing network access: %w", err)
	}
	if d.network.Allowed != wasAllowed {
		d.logger.Info("network access changed", "allowed", d.network.Allowed)
	}
	return nil
}

func (d *Discipline) syncDevice(ctx context.Context) error {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()

	if err := d.device.Sync(ctx, d.host, d.now()); err != nil {
		return fmt.Errorf("syncing device access: %w", err)
	}
	return nil
}

// snapshot copies the regulators under their locks.
func (d *Discipline) snapshot() *statefile.Snapshot {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()
	d.networkMu.Lock()
	defer d.networkMu.Unlock()
	d.userMu.Lock()
	defer d.userMu.Unlock()

	user := *d.user
	user.BlockIndicator = d.user.BlockIndicator.Clone()
	network := *d.network
	network.BlockIndicator = d.network.BlockIndicator.Clone()
	device := *d.device
	device.BlockIndicator = d.device.BlockIndicator.Clone()

	return &statefile.Snapshot{
		PrivatePassword: d.privatePassword,
		UserAccess:      &user,
		NetworkAccess:   &network,
		DeviceAccess:    &device,
	}
}

func (d *Discipline) save() error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()
	return statefile.Save(d.path, d.snapshot(), d.options)
}

// ExtendCountdowns adds duration to every countdown in the user access
// indicator and saves. Returns the number of countdowns extended.
func (d *Discipline) ExtendCountdowns(duration chrono.Duration) (int, error) {
	extended, err := d.extendUserCountdowns(duration)
	if err != nil {
		return 0, err
	}
	if err := d.save(); err != nil {
		return 0, err
	}
	return extended, nil
}

func (d *Discipline) extendUserCountdowns(duration chrono.Duration) (int, error) {
	d.userMu.Lock()
	defer d.userMu.Unlock()
	return ExtendCountdowns(d.user.BlockIndicator, duration)
}

// ExtendCountdowns adds duration to every countdown in tree. Either
// every countdown is extended or, on overflow, none is.
func ExtendCountdowns(tree *indicator.Indicator, duration chrono.Duration) (int, error) {
	var countdowns []*indicator.Indicator
	tree.Walk(func(node *indicator.Indicator) {
		if node.Kind() == indicator.KindCountdown {
			countdowns = append(countdowns, node)
		}
	})
	for _, countdown := range countdowns {
		if _, err := countdown.Remaining().Add(duration); err != nil {
			return 0, fmt.Errorf("extending countdown by %v: %w", duration, err)
		}
	}
	for _, countdown := range countdowns {
		if err := countdown.Extend(duration); err != nil {
			return 0, err
		}
	}
	return len(countdowns), nil
}

// ClearUserCache forgets that the user is blocked, without an OS call,
// and saves. Use it after the password was restored out of band; the
// next sync reapplies the block if the indicator is still active.
func (d *Discipline) ClearUserCache() error {
	d.userMu.Lock()
	d.user.ClearCache()
	d.userMu.Unlock()
	return d.save()
}

// Run syncs everything once, then runs the three sync loops until ctx
// is cancelled. Errors are logged; Run itself only returns when ctx is
// done.
func (d *Discipline) Run(ctx context.Context) error {
	if err := d.SyncAll(ctx); err != nil {
		d.logger.Error("initial sync failed", "error", err)
	}

	userTicker := d.clock.NewTicker(d.intervals.User)
	defer userTicker.Stop()
	networkTicker := d.clock.NewTicker(d.intervals.Network)
	defer networkTicker.Stop()
	deviceTicker := d.clock.NewTicker(d.intervals.Device)
	defer deviceTicker.Stop()

	d.logger.Info("sync loops started",
		"user_interval", d.intervals.User,
		"network_interval", d.intervals.Network,
		"device_interval", d.intervals.Device,
	)

	var group sync.WaitGroup
	group.Add(3)
	go func() {
		defer group.Done()
		d.loop(ctx, userTicker, "user", d.SyncUserAccess)
	}()
	go func() {
		defer group.Done()
		d.loop(ctx, networkTicker, "network", d.SyncNetworkAccess)
	}()
	go func() {
		defer group.Done()
		d.loop(ctx, deviceTicker, "device", d.deviceTick)
	}()
	group.Wait()

	d.logger.Info("sync loops stopped")
	return nil
}

func (d *Discipline) loop(ctx context.Context, ticker *clock.Ticker, regulatorName string, syncOnce func(context.Context) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := syncOnce(ctx); err != nil {
			d.logger.Error("sync failed", "regulator", regulatorName, "error", err)
		}
	}
}

// deviceTick corrects the system clock before deciding on device
// access. A failed clock sync does not skip the device sync.
func (d *Discipline) deviceTick(ctx context.Context) error {
	if _, err := d.SyncTime(ctx); err != nil {
		d.logger.Warn("clock sync failed", "error", err)
	}
	return d.SyncDeviceAccess(ctx)
}
