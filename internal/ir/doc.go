// Package ir provides the value and record types shared by every other
// triggertree package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Frames are IRObject values looked up by dotted property path
//   - Canonical JSON (sorted keys, NFC strings) for hashes and golden output
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
