// QR Tracking System - Campaign Scan Tracking and Analytics
// Copyright 2026 Joao M. (joao1975-rgb)
// SPDX-License-Identifier: MIT
// https://github.com/joao1975-rgb/qr-tracking-system

// Package useragent classifies scan user agents into the coarse device
// type, browser, and OS buckets stored with each scan. The buckets are a
// fixed substring table; anything unmatched lands in the catch-all so
// analytics groupings stay stable.
package useragent

import "strings"

// Info is the classification of one user agent string.
type Info struct {
	DeviceType string
	Browser    string
	OS         string
}

// Device type buckets.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
	DeviceUnknown = "Unknown"
)

// Parse classifies a raw User-Agent header.
// An empty user agent yields Unknown across all fields.
func Parse(ua string) Info {
	if strings.TrimSpace(ua) == "" {
		return Info{DeviceType: DeviceUnknown, Browser: DeviceUnknown, OS: DeviceUnknown}
	}
	return Info{
		DeviceType: deviceType(ua),
		Browser:    browser(ua),
		OS:         operatingSystem(ua),
	}
}

// deviceType buckets a user agent into Mobile, Tablet, or Desktop.
// Tablets are checked first: iPad UAs also contain "Mobile".
func deviceType(ua string) string {
	switch {
	case contains(ua, "ipad", "tablet"):
		return DeviceTablet
	case contains(ua, "mobile", "iphone", "android"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// browser identifies the browser family.
// Order matters: Chrome UAs contain "Safari", Edge UAs contain "Chrome".
func browser(ua string) string {
	switch {
	case contains(ua, "edg/", "edge"):
		return "Edge"
	case contains(ua, "opr/", "opera"):
		return "Opera"
	case contains(ua, "chrome", "crios"):
		return "Chrome"
	case contains(ua, "firefox", "fxios"):
		return "Firefox"
	case contains(ua, "safari"):
		return "Safari"
	default:
		return "Other"
	}
}

// operatingSystem identifies the OS family.
func operatingSystem(ua string) string {
	switch {
	case contains(ua, "android"):
		return "Android"
	case contains(ua, "iphone", "ipad", "ios"):
		return "iOS"
	case contains(ua, "windows"):
		return "Windows"
	case contains(ua, "mac os", "macintosh"):
		return "macOS"
	case contains(ua, "linux"):
		return "Linux"
	default:
		return "Other"
	}
}

// contains reports whether ua contains any needle, case-insensitively.
func contains(ua string, needles ...string) bool {
	lower := strings.ToLower(ua)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
