package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates the payment state machine:
// PENDING -> APPROVED -> REFUNDED and PENDING -> REJECTED.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod identifies how the purchaser pays. PIX payments carry a
// copy-paste payload that is also rendered as a QR image.
type PaymentMethod string

const (
	MethodPix        PaymentMethod = "PIX"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
)

// Payment is the monetary counterpart of a ticket purchase. At most one
// payment exists per ticket; the payments table enforces that with a unique
// key on ticket_id. Approval and refund are driven by external gateway
// events, modeled here purely as status transitions.
type Payment struct {
	ID           string          `json:"id"`
	TicketID     string          `json:"ticket_id"`
	PayerID      string          `json:"payer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       PaymentMethod   `json:"method"`
	Status       PaymentStatus   `json:"status"`
	PixPayload   *string         `json:"pix_payload,omitempty"`
	GatewayTxnID *string         `json:"gateway_txn_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	RefundedAt   *time.Time      `json:"refunded_at,omitempty"`
}

func (p Payment) CanBeApproved() bool { return p.Status == PaymentPending }
func (p Payment) CanBeRejected() bool { return p.Status == PaymentPending }
func (p Payment) CanBeRefunded() bool { return p.Status == PaymentApproved }

// IsPix reports whether the payment uses the PIX instant-payment method.
func (p Payment) IsPix() bool { return p.Method == MethodPix }

// IsCreditCard reports whether the payment uses a credit card.
func (p Payment) IsCreditCard() bool { return p.Method == MethodCreditCard }

// Approve returns a copy of the payment in the APPROVED state, recording
// the gateway transaction that settled it.
func (p Payment) Approve(now time.Time, gatewayTxnID string) (Payment, error) {
	if !p.CanBeApproved() {
		return Payment{}, invalidOp("payment %s cannot be approved: status is %s", p.ID, p.Status)
	}
	at := now.UTC()
	p.Status = PaymentApproved
	p.ApprovedAt = &at
	p.GatewayTxnID = &gatewayTxnID
	return p, nil
}

// Reject returns a copy of the payment in the REJECTED state.
func (p Payment) Reject() (Payment, error) {
	if !p.CanBeRejected() {
		return Payment{}, invalidOp("payment %s cannot be rejected: status is %s", p.ID, p.Status)
	}
	p.Status = PaymentRejected
	return p, nil
}

// Refund returns a copy of the payment in the REFUNDED state. Only an
// APPROVED payment can be refunded.
func (p Payment) Refund(now time.Time) (Payment, error) {
	if !p.CanBeRefunded() {
		return Payment{}, invalidOp("payment %s cannot be refunded: status is %s", p.ID, p.Status)
	}
	at := now.UTC()
	p.Status = PaymentRefunded
	p.RefundedAt = &at
	return p, nil
}
