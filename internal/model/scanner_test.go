package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScannerRole_Capabilities(t *testing.T) {
	assert.Equal(t, []string{CapValidateTickets}, RoleValidator.Capabilities())
	assert.Equal(t, []string{CapValidateTickets, CapCheckInTickets}, RoleManager.Capabilities())
	assert.Equal(t, []string{CapValidateTickets, CapCheckInTickets, CapManageScanners}, RoleAdmin.Capabilities())
}

func TestScannerRole_StrictlyIncreasing(t *testing.T) {
	// Every capability of a role is held by the next role up.
	for _, c := range RoleValidator.Capabilities() {
		assert.True(t, RoleManager.HasCapability(c))
	}
	for _, c := range RoleManager.Capabilities() {
		assert.True(t, RoleAdmin.HasCapability(c))
	}
	assert.False(t, RoleValidator.HasCapability(CapManageScanners))
	assert.False(t, RoleManager.HasCapability(CapManageScanners))
}

func TestScanner_IsActive(t *testing.T) {
	assert.True(t, Scanner{Status: ScannerActive}.IsActive())
	assert.False(t, Scanner{Status: ScannerInactive}.IsActive())
	assert.False(t, Scanner{Status: ScannerSuspended}.IsActive())
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("VALIDATOR"))
	assert.True(t, ValidRole("ADMIN"))
	assert.False(t, ValidRole("OWNER"))
	assert.False(t, ValidRole(""))
}
