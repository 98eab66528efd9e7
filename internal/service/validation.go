package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/monitoring"
	"github.com/venuehq/ticket-gate/internal/queue"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/utils"
)

// User-facing verdict messages.
const (
	MsgValid           = "Ingresso válido"
	MsgNotFound        = "Ingresso não encontrado"
	MsgAlreadyUsed     = "Ingresso já foi utilizado"
	MsgCancelled       = "Ingresso cancelado"
	MsgTransferred     = "Ingresso foi transferido"
	MsgEventNotStarted = "O evento ainda não começou"
)

// Verdict is the structured outcome of a validation attempt. A failed scan
// is an expected, frequent result that the device must branch on, so it is
// reported here rather than as an error; errors are reserved for storage
// and credential failures.
type Verdict struct {
	Valid   bool          `json:"valid"`
	Message string        `json:"message"`
	Ticket  *model.Ticket `json:"ticket,omitempty"`
}

// ValidationTicketStore is the persistence surface the validation service
// needs. MarkUsed must be atomic: it reports true for exactly one caller
// per ticket.
type ValidationTicketStore interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	GetByCode(ctx context.Context, code string) (*model.Ticket, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
}

// ScannerResolver resolves a credential for the capability-light check path.
type ScannerResolver interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Scanner, error)
}

// Validation implements the redemption protocol: resolve a scanned code,
// apply the status and time gates, and perform the at-most-once
// ACTIVE -> USED transition.
type Validation struct {
	log          *slog.Logger
	tickets      ValidationTicketStore
	scanners     ScannerResolver
	audit        AuditPublisher
	storeTimeout time.Duration
}

// NewValidation returns a new Validation service. storeTimeout bounds every
// storage call on the hot path; a timeout is a transient failure and the
// scan is safe to retry because the transition itself is atomic.
func NewValidation(log *slog.Logger, tickets ValidationTicketStore, scanners ScannerResolver, audit AuditPublisher, storeTimeout time.Duration) *Validation {
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &Validation{
		log:          log,
		tickets:      tickets,
		scanners:     scanners,
		audit:        audit,
		storeTimeout: storeTimeout,
	}
}

// Validate is the authoritative redemption entry point, called by a scanner
// holding a capability token. Exactly one concurrent call per ticket can
// return a valid verdict; all others see the USED status.
func (s *Validation) Validate(ctx context.Context, code, scannerID string) (Verdict, error) {
	const op = "service.validation.Validate"
	log := s.log.With("op", op, "scanner_id", scannerID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	t, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("verdict", "result", "not_found")
			s.record(ctx, scannerID, "", code, "not_found", MsgNotFound, start)
			return Verdict{Valid: false, Message: MsgNotFound}, nil
		}
		log.Error("ticket lookup failed", "err", err)
		return Verdict{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.Status != model.TicketActive {
		msg := statusMessage(t.Status)
		log.Info("verdict", "result", strings.ToLower(string(t.Status)), "ticket_id", t.ID)
		s.record(ctx, scannerID, t.ID, code, strings.ToLower(string(t.Status)), msg, start)
		return Verdict{Valid: false, Message: msg}, nil
	}

	now := time.Now()
	if !t.CanBeUsed(now) {
		log.Info("verdict", "result", "not_started", "ticket_id", t.ID)
		s.record(ctx, scannerID, t.ID, code, "not_started", MsgEventNotStarted, start)
		return Verdict{Valid: false, Message: MsgEventNotStarted}, nil
	}

	// The conditional update is the real transition; the checks above only
	// shape the verdict message. Losing the race here is not an error.
	won, err := s.tickets.MarkUsed(ctx, t.ID, now)
	if err != nil {
		log.Error("redemption update failed", "ticket_id", t.ID, "err", err)
		return Verdict{}, fmt.Errorf("%s: %w", op, err)
	}
	if !won {
		current, err := s.tickets.GetByID(ctx, t.ID)
		msg := MsgAlreadyUsed
		if err == nil && current.Status != model.TicketUsed {
			msg = statusMessage(current.Status)
		}
		log.Info("verdict", "result", "already_used", "ticket_id", t.ID)
		s.record(ctx, scannerID, t.ID, code, "already_used", msg, start)
		return Verdict{Valid: false, Message: msg}, nil
	}

	used := now.UTC()
	t.Status = model.TicketUsed
	t.UsedAt = &used

	log.Info("verdict", "result", "valid", "ticket_id", t.ID, "event_id", t.EventID)
	s.record(ctx, scannerID, t.ID, code, "valid", MsgValid, start)
	return Verdict{Valid: true, Message: MsgValid, Ticket: t}, nil
}

// Check is the capability-light entry point for legacy integrations: a raw
// code plus a device API key, no prior token exchange. It reports the
// ticket's current status without redeeming it and is non-authoritative
// for redemption counting.
func (s *Validation) Check(ctx context.Context, code, apiKey, ip string) (Verdict, error) {
	const op = "service.validation.Check"
	log := s.log.With("op", op, "api_key", utils.MaskAPIKey(apiKey), "ip", ip)
	start := time.Now()

	if !strings.HasPrefix(apiKey, utils.APIKeyPrefix) {
		log.Warn("rejected malformed api key")
		return Verdict{}, fmt.Errorf("%s: %w", op, ErrMalformedAPIKey)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	sc, err := s.scanners.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("unknown api key")
			return Verdict{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return Verdict{}, fmt.Errorf("%s: %w", op, err)
	}
	if !sc.IsActive() {
		log.Warn("scanner not active", "scanner_id", sc.ID, "status", sc.Status)
		return Verdict{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	t, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.record(ctx, sc.ID, "", code, "check_not_found", MsgNotFound, start)
			return Verdict{Valid: false, Message: MsgNotFound}, nil
		}
		return Verdict{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.Status != model.TicketActive {
		msg := statusMessage(t.Status)
		s.record(ctx, sc.ID, t.ID, code, "check_"+strings.ToLower(string(t.Status)), msg, start)
		return Verdict{Valid: false, Message: msg}, nil
	}

	s.record(ctx, sc.ID, t.ID, code, "check_valid", MsgValid, start)
	return Verdict{Valid: true, Message: MsgValid, Ticket: t}, nil
}

func statusMessage(status model.TicketStatus) string {
	switch status {
	case model.TicketUsed:
		return MsgAlreadyUsed
	case model.TicketCancelled:
		return MsgCancelled
	case model.TicketTransferred:
		return MsgTransferred
	default:
		return MsgNotFound
	}
}

func (s *Validation) record(ctx context.Context, scannerID, ticketID, code, result, message string, start time.Time) {
	monitoring.RecordValidation(result, time.Since(start))
	_ = s.audit.Publish(ctx, queue.AuditEvent{
		Type:       queue.EventTicketValidation,
		ScannerID:  scannerID,
		TicketID:   ticketID,
		TicketCode: code,
		Result:     result,
		Message:    message,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
