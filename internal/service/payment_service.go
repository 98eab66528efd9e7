package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/qrcode"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/utils"
)

// PaymentStore is the persistence surface the payment service needs.
type PaymentStore interface {
	Create(ctx context.Context, p model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByTicketID(ctx context.Context, ticketID string) (*model.Payment, error)
	ListByPayer(ctx context.Context, payerID string) ([]model.Payment, error)
	Update(ctx context.Context, p model.Payment, expect model.PaymentStatus) (bool, error)
}

// paymentTicketStore is the slice of ticket persistence the payment service
// needs to resolve the ticket being paid for.
type paymentTicketStore interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
}

// PaymentService creates payments for tickets and applies the gateway-driven
// status transitions. It never talks to a payment network; approval and
// refund arrive as external events.
type PaymentService struct {
	log     *slog.Logger
	store   PaymentStore
	tickets paymentTicketStore
}

// NewPaymentService returns a new PaymentService.
func NewPaymentService(log *slog.Logger, store PaymentStore, tickets paymentTicketStore) *PaymentService {
	return &PaymentService{log: log, store: store, tickets: tickets}
}

// Create opens a PENDING payment for a ticket, priced at the ticket's
// price. PIX payments get a copy-paste payload attached at creation; the
// unique key on ticket_id makes a second payment impossible even when the
// pre-check races a concurrent attempt.
func (s *PaymentService) Create(ctx context.Context, ticketID, payerID string, method model.PaymentMethod) (*model.Payment, error) {
	const op = "service.payment.Create"
	log := s.log.With("op", op, "ticket_id", ticketID, "payer_id", payerID)

	if method != model.MethodPix && method != model.MethodCreditCard {
		return nil, fmt.Errorf("%s: unknown payment method %q", op, method)
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.GetByTicketID(ctx, ticketID); err == nil {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrPaymentExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := model.Payment{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		PayerID:   payerID,
		Amount:    t.Price,
		Method:    method,
		Status:    model.PaymentPending,
		CreatedAt: time.Now().UTC(),
	}
	if p.IsPix() {
		payload, err := utils.RandomHex(16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pix := "pix_" + payload
		p.PixPayload = &pix
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPaymentExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to create payment", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("payment created", "payment_id", p.ID, "method", p.Method, "amount", p.Amount)
	return &p, nil
}

// Get returns a payment after checking the requester is the payer.
func (s *PaymentService) Get(ctx context.Context, paymentID, payerID string) (*model.Payment, error) {
	const op = "service.payment.Get"
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.PayerID != payerID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return p, nil
}

// ListByPayer returns all payments made by a user.
func (s *PaymentService) ListByPayer(ctx context.Context, payerID string) ([]model.Payment, error) {
	return s.store.ListByPayer(ctx, payerID)
}

// PixQRImage renders the payment's PIX payload as a PNG for the payer.
func (s *PaymentService) PixQRImage(ctx context.Context, paymentID, payerID string) ([]byte, error) {
	const op = "service.payment.PixQRImage"
	p, err := s.Get(ctx, paymentID, payerID)
	if err != nil {
		return nil, err
	}
	if !p.IsPix() || p.PixPayload == nil {
		return nil, fmt.Errorf("%s: %w: payment %s has no PIX payload", op, model.ErrInvalidOperation, p.ID)
	}
	img, err := qrcode.Encode(*p.PixPayload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

// Approve applies the gateway approval event to a PENDING payment.
func (s *PaymentService) Approve(ctx context.Context, paymentID, gatewayTxnID string) (*model.Payment, error) {
	const op = "service.payment.Approve"
	return s.transition(ctx, op, paymentID, model.PaymentPending, func(p model.Payment) (model.Payment, error) {
		return p.Approve(time.Now(), gatewayTxnID)
	})
}

// Reject applies the gateway rejection event to a PENDING payment.
func (s *PaymentService) Reject(ctx context.Context, paymentID string) (*model.Payment, error) {
	const op = "service.payment.Reject"
	return s.transition(ctx, op, paymentID, model.PaymentPending, func(p model.Payment) (model.Payment, error) {
		return p.Reject()
	})
}

// Refund refunds an APPROVED payment.
func (s *PaymentService) Refund(ctx context.Context, paymentID string) (*model.Payment, error) {
	const op = "service.payment.Refund"
	return s.transition(ctx, op, paymentID, model.PaymentApproved, func(p model.Payment) (model.Payment, error) {
		return p.Refund(time.Now())
	})
}

func (s *PaymentService) transition(ctx context.Context, op, paymentID string, expect model.PaymentStatus, apply func(model.Payment) (model.Payment, error)) (*model.Payment, error) {
	p, err := s.store.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	next, err := apply(*p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ok, err := s.store.Update(ctx, next, expect)
	if err != nil {
		s.log.Error("payment update failed", "op", op, "payment_id", paymentID, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// A concurrent transition won; the guard no longer holds in storage.
		return nil, fmt.Errorf("%s: %w: payment %s is no longer %s", op, model.ErrInvalidOperation, paymentID, expect)
	}
	s.log.Info("payment transition", "op", op, "payment_id", paymentID, "status", next.Status)
	return &next, nil
}
