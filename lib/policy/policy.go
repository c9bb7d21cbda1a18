// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/discipline-project/discipline/lib/chrono"
	"github.com/discipline-project/discipline/lib/indicator"
	"github.com/discipline-project/discipline/lib/regulator"
)

// Policy is a parsed policy file.
type Policy struct {
	Username string
	Password string

	UserBlock    *indicator.Indicator
	NetworkBlock *indicator.Indicator
	DeviceBlock  *indicator.Indicator
}

// Error locates a problem in a policy file.
type Error struct {
	// Path is the dotted JSON path, e.g. "device.block.and[0]".
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(path, format string, args ...any) error {
	return &Error{Path: path, Err: fmt.Errorf(format, args...)}
}

type document struct {
	User struct {
		Username string          `json:"username"`
		Password string          `json:"password"`
		Block    json.RawMessage `json:"block"`
	} `json:"user"`
	Network section `json:"network"`
	Device  section `json:"device"`
}

type section struct {
	Block json.RawMessage `json:"block"`
}

// Parse strips JSONC comments and trailing commas from data and builds
// the policy.
func Parse(data []byte) (*Policy, error) {
	var content document
	if err := decodeStrict(jsonc.ToJSON(data), &content); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	if content.User.Username == "" {
		return nil, errorf("user.username", "required")
	}
	if strings.ContainsAny(content.User.Username, ":\n") {
		return nil, errorf("user.username", "must not contain ':' or newlines")
	}
	if strings.Contains(content.User.Password, "\n") {
		return nil, errorf("user.password", "must not contain newlines")
	}

	policy := &Policy{
		Username: content.User.Username,
		Password: content.User.Password,
	}
	var err error
	if policy.UserBlock, err = parseSection("user.block", content.User.Block); err != nil {
		return nil, err
	}
	if policy.NetworkBlock, err = parseSection("network.block", content.Network.Block); err != nil {
		return nil, err
	}
	if policy.DeviceBlock, err = parseSection("device.block", content.Device.Block); err != nil {
		return nil, err
	}
	return policy, nil
}

// ReadFile reads and parses a policy file.
func ReadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	policy, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policy, nil
}

// Regulators returns fresh regulators for the policy: the user
// unblocked, the network allowed.
func (p *Policy) Regulators() (*regulator.UserAccess, *regulator.NetworkAccess, *regulator.DeviceAccess) {
	return regulator.NewUserAccess(p.Username, p.Password, p.UserBlock.Clone()),
		regulator.NewNetworkAccess(p.NetworkBlock.Clone()),
		regulator.NewDeviceAccess(p.DeviceBlock.Clone())
}

func parseSection(path string, raw json.RawMessage) (*indicator.Indicator, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return indicator.Or(), nil
	}
	tree, err := parseNode(path, raw)
	if err != nil {
		return nil, err
	}
	if depth := tree.Depth(); depth > indicator.MaxDepth {
		return nil, errorf(path, "indicator nests %d levels deep, limit is %d", depth, indicator.MaxDepth)
	}
	return tree, nil
}

func parseNode(path string, raw json.RawMessage) (*indicator.Indicator, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, errorf(path, "indicator must be an object: %v", err)
	}
	if len(node) != 1 {
		keys := make([]string, 0, len(node))
		for key := range node {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return nil, errorf(path, "indicator must have exactly one kind key, got %q", keys)
	}

	for kind, body := range node {
		path := path + "." + kind
		switch kind {
		case "or", "and":
			return parseComposite(path, kind, body)
		case "countdown":
			return parseCountdown(path, body)
		case "time_range":
			return parseTimeRange(path, body)
		case "hour_range":
			return parseHourRange(path, body)
		case "minute_range":
			return parseMinuteRange(path, body)
		case "weekday_range":
			return parseWeekdayRange(path, body)
		default:
			return nil, errorf(path, "unknown indicator kind (want or, and, countdown, time_range, hour_range, minute_range, weekday_range)")
		}
	}
	panic("unreachable")
}

func parseComposite(path, kind string, body json.RawMessage) (*indicator.Indicator, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errorf(path, "expected an array of indicators: %v", err)
	}
	items := make([]*indicator.Indicator, 0, len(raws))
	for index, raw := range raws {
		item, err := parseNode(fmt.Sprintf("%s[%d]", path, index), raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if kind == "and" {
		return indicator.And(items...), nil
	}
	return indicator.Or(items...), nil
}

func parseCountdown(path string, body json.RawMessage) (*indicator.Indicator, error) {
	var text string
	if err := json.Unmarshal(body, &text); err != nil {
		return nil, errorf(path, "expected a duration string like \"90m\": %v", err)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	duration, err := chrono.FromStd(parsed)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return indicator.Countdown(duration), nil
}

type bounds[T any] struct {
	From *T `json:"from"`
	Till *T `json:"till"`
}

func parseBounds[T any](path string, body json.RawMessage) (T, T, error) {
	var value bounds[T]
	var zero T
	if err := decodeStrict(body, &value); err != nil {
		return zero, zero, errorf(path, "expected {\"from\": ..., \"till\": ...}: %v", err)
	}
	if value.From == nil {
		return zero, zero, errorf(path+".from", "required")
	}
	if value.Till == nil {
		return zero, zero, errorf(path+".till", "required")
	}
	return *value.From, *value.Till, nil
}

func parseTimeRange(path string, body json.RawMessage) (*indicator.Indicator, error) {
	fromText, tillText, err := parseBounds[string](path, body)
	if err != nil {
		return nil, err
	}
	from, err := chrono.ParseTime(fromText)
	if err != nil {
		return nil, &Error{Path: path + ".from", Err: err}
	}
	till, err := chrono.ParseTime(tillText)
	if err != nil {
		return nil, &Error{Path: path + ".till", Err: err}
	}
	return indicator.TimeRange(from, till), nil
}

func parseHourRange(path string, body json.RawMessage) (*indicator.Indicator, error) {
	fromClock, tillClock, err := parseBounds[int](path, body)
	if err != nil {
		return nil, err
	}
	from, ok := chrono.HourOf(fromClock)
	if !ok {
		return nil, errorf(path+".from", "hour %d out of range [0, 23]", fromClock)
	}
	till, ok := chrono.HourOf(tillClock)
	if !ok {
		return nil, errorf(path+".till", "hour %d out of range [0, 23]", tillClock)
	}
	return indicator.HourRange(from, till), nil
}

func parseMinuteRange(path string, body json.RawMessage) (*indicator.Indicator, error) {
	fromClock, tillClock, err := parseBounds[int](path, body)
	if err != nil {
		return nil, err
	}
	from, ok := chrono.MinuteOf(fromClock)
	if !ok {
		return nil, errorf(path+".from", "minute %d out of range [0, 59]", fromClock)
	}
	till, ok := chrono.MinuteOf(tillClock)
	if !ok {
		return nil, errorf(path+".till", "minute %d out of range [0, 59]", tillClock)
	}
	return indicator.MinuteRange(from, till), nil
}

func parseWeekdayRange(path string, body json.RawMessage) (*indicator.Indicator, error) {
	fromName, tillName, err := parseBounds[string](path, body)
	if err != nil {
		return nil, err
	}
	from, err := chrono.ParseWeekday(fromName)
	if err != nil {
		return nil, &Error{Path: path + ".from", Err: err}
	}
	till, err := chrono.ParseWeekday(tillName)
	if err != nil {
		return nil, &Error{Path: path + ".till", Err: err}
	}
	return indicator.WeekdayRange(from, till), nil
}

func decodeStrict(data []byte, value any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(value)
}
