package model

import "time"

// ScannerRole orders the capability levels of a scanning device. Each role
// maps to an explicit capability set below; higher roles are strict
// supersets of lower ones, so new capabilities stay additive.
type ScannerRole string

const (
	RoleValidator ScannerRole = "VALIDATOR"
	RoleManager   ScannerRole = "MANAGER"
	RoleAdmin     ScannerRole = "ADMIN"
)

// ScannerStatus enumerates the administrative states of a device
// credential. Only ACTIVE devices may authenticate or keep using a
// previously issued token.
type ScannerStatus string

const (
	ScannerActive    ScannerStatus = "ACTIVE"
	ScannerInactive  ScannerStatus = "INACTIVE"
	ScannerSuspended ScannerStatus = "SUSPENDED"
)

// Capability names embedded in scanner tokens.
const (
	CapValidateTickets = "validate_tickets"
	CapCheckInTickets  = "check_in_tickets"
	CapManageScanners  = "manage_scanners"
)

var roleCapabilities = map[ScannerRole][]string{
	RoleValidator: {CapValidateTickets},
	RoleManager:   {CapValidateTickets, CapCheckInTickets},
	RoleAdmin:     {CapValidateTickets, CapCheckInTickets, CapManageScanners},
}

// Capabilities returns the capability set granted by the role. The returned
// slice is a copy and may be modified by the caller.
func (r ScannerRole) Capabilities() []string {
	caps := roleCapabilities[r]
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

// HasCapability reports whether the role grants the named capability.
func (r ScannerRole) HasCapability(capability string) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// ValidRole reports whether s names a known scanner role.
func ValidRole(s string) bool {
	_, ok := roleCapabilities[ScannerRole(s)]
	return ok
}

// Scanner is a registered scanning device. APIKey is the public identifier
// submitted on every authentication; the shared secret is stored only as a
// bcrypt hash. LastUsedAt/LastUsedIP are updated on every successful
// authentication for the audit trail.
type Scanner struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Location   string        `json:"location"`
	APIKey     string        `json:"api_key"`
	SecretHash string        `json:"-"`
	Role       ScannerRole   `json:"role"`
	Status     ScannerStatus `json:"status"`
	LastUsedAt *time.Time    `json:"last_used_at,omitempty"`
	LastUsedIP *string       `json:"last_used_ip,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// IsActive reports whether the credential may authenticate right now.
func (s Scanner) IsActive() bool { return s.Status == ScannerActive }
