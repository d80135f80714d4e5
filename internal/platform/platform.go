// Package platform describes the operating system services the caller-ID
// flow depends on, with headless implementations used by the daemon and by
// tests.
package platform

import "context"

// OverlayPermission reports and requests the right to draw over other apps.
type OverlayPermission interface {
	CanDrawOverlays() bool
	// RequestOverlayPermission asks the user for the permission and reports
	// whether it is granted afterwards.
	RequestOverlayPermission(ctx context.Context) bool
}

// Telephony exposes read-only facts about the device's phone service.
type Telephony interface {
	// SimCountryISO returns the SIM's ISO 3166 country code as reported by
	// the OS, possibly empty or lower case.
	SimCountryISO() string
}

// WindowManager attaches and detaches system-level views.
type WindowManager interface {
	AddView(v View) error
	RemoveView(v View) error
}
