// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy parses the administrator's policy file into block
// indicators and user credentials.
//
// Policy files are JSONC (JSON with // and /* */ comments and trailing
// commas). The top level names the three regulated resources:
//
//	{
//	  "user": {
//	    "username": "alice",
//	    "password": "correct horse",
//	    // Locked out late at night, and for the first 3h after init.
//	    "block": {"or": [
//	      {"time_range": {"from": "22:00", "till": "23:59"}},
//	      {"countdown": "3h"},
//	    ]},
//	  },
//	  "network": {"block": {"hour_range": {"from": 0, "till": 5}}},
//	  "device":  {"block": {"and": [
//	    {"weekday_range": {"from": "mon", "till": "fri"}},
//	    {"time_range": {"from": "01:00", "till": "05:00"}},
//	  ]}},
//	}
//
// Each indicator node is an object with exactly one key naming its
// kind. Hours and minutes are wall-clock numbers (0 to 23, 0 to 59);
// conversion to the engine's ordinals happens here. A section without
// a "block" node gets an empty Or, which is never active. A countdown
// blocks while time remains and stops blocking once it runs out, so
// "extend" lengthens a block rather than granting access. The password
// may be omitted when the admin CLI supplies it at init time.
//
// Errors carry the JSON path of the offending node, for example
// "user.block.or[1].countdown: time: invalid duration".
package policy
