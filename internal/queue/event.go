// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit event types.
const (
	EventScannerAuth      = "scanner.auth"
	EventTicketValidation = "ticket.validation"
)

// AuditEvent is published for every scanner authentication attempt and
// every redemption decision, valid or not. It carries enough context for
// forensics consumers to attribute the decision to a device and point in
// time without querying the primary database. Credentials appear only in
// masked form.
type AuditEvent struct {
	Type         string `json:"type"`
	ScannerID    string `json:"scanner_id,omitempty"`
	APIKeyPrefix string `json:"api_key_prefix,omitempty"`
	TicketID     string `json:"ticket_id,omitempty"`
	TicketCode   string `json:"ticket_code,omitempty"`
	Result       string `json:"result"`
	Message      string `json:"message,omitempty"`
	RemoteIP     string `json:"remote_ip,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}
