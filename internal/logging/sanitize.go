// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

package logging

import (
	"fmt"
	"strings"
)

// maxFieldLen caps user-supplied values (user agents, referers) in logs.
const maxFieldLen = 256

// Sanitize neutralizes log injection in user-controlled values.
// Control characters (0x00-0x1F and 0x7F) are replaced with a hex escape
// and the result is truncated to a bounded length.
func Sanitize(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return Truncate(result.String(), maxFieldLen)
}

// Truncate shortens a string to at most maxLen characters.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
