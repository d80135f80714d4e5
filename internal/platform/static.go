package platform

import (
	"context"
	"sync"
)

// Static is an OverlayPermission and Telephony backed by fixed values, for
// headless hosts and tests.
//
// Thread-safety: All methods are safe for concurrent use.
type Static struct {
	mu         sync.Mutex
	granted    bool
	autoGrant  bool
	simCountry string
}

// NewStatic returns a Static. When autoGrant is set, a permission request
// grants the permission.
func NewStatic(granted, autoGrant bool, simCountry string) *Static {
	return &Static{granted: granted, autoGrant: autoGrant, simCountry: simCountry}
}

func (s *Static) CanDrawOverlays() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

func (s *Static) RequestOverlayPermission(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autoGrant {
		s.granted = true
	}
	return s.granted
}

// SetOverlayPermission changes the permission, as the user would in the
// system settings.
func (s *Static) SetOverlayPermission(granted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = granted
}

func (s *Static) SimCountryISO() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simCountry
}

// SetSimCountry changes the reported SIM country.
func (s *Static) SetSimCountry(iso string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simCountry = iso
}
