package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/repository"
)

type fakePaymentStore struct {
	payments map[string]model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]model.Payment)}
}

func (s *fakePaymentStore) Create(_ context.Context, p model.Payment) error {
	for _, existing := range s.payments {
		if existing.TicketID == p.TicketID {
			return repository.ErrPaymentExists
		}
	}
	s.payments[p.ID] = p
	return nil
}

func (s *fakePaymentStore) GetByID(_ context.Context, id string) (*model.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *fakePaymentStore) GetByTicketID(_ context.Context, ticketID string) (*model.Payment, error) {
	for _, p := range s.payments {
		if p.TicketID == ticketID {
			out := p
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakePaymentStore) ListByPayer(_ context.Context, payerID string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range s.payments {
		if p.PayerID == payerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePaymentStore) Update(_ context.Context, p model.Payment, expect model.PaymentStatus) (bool, error) {
	current, ok := s.payments[p.ID]
	if !ok || current.Status != expect {
		return false, nil
	}
	s.payments[p.ID] = p
	return true, nil
}

func newPaymentFixtures(t *testing.T) (*PaymentService, *fakePaymentStore) {
	t.Helper()
	tickets := newFakeTicketStore(futureTicket("t1", "user-1"), futureTicket("t2", "user-2"))
	store := newFakePaymentStore()
	return NewPaymentService(quietLogger(), store, tickets), store
}

func TestPaymentService_CreatePix(t *testing.T) {
	svc, _ := newPaymentFixtures(t)

	p, err := svc.Create(context.Background(), "t1", "user-1", model.MethodPix)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPending, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromFloat(150.00)), "amount comes from the ticket price")
	require.NotNil(t, p.PixPayload)
	assert.True(t, strings.HasPrefix(*p.PixPayload, "pix_"))
}

func TestPaymentService_CreateCreditCard(t *testing.T) {
	svc, _ := newPaymentFixtures(t)

	p, err := svc.Create(context.Background(), "t1", "user-1", model.MethodCreditCard)
	require.NoError(t, err)
	assert.Nil(t, p.PixPayload)
}

func TestPaymentService_Create_Rejections(t *testing.T) {
	svc, _ := newPaymentFixtures(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "t1", "user-1", "BOLETO")
	require.Error(t, err)

	_, err = svc.Create(ctx, "missing-ticket", "user-1", model.MethodPix)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// One payment per ticket.
	_, err = svc.Create(ctx, "t1", "user-1", model.MethodPix)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "t1", "user-1", model.MethodCreditCard)
	require.ErrorIs(t, err, repository.ErrPaymentExists)
}

func TestPaymentService_Get_EnforcesPayer(t *testing.T) {
	svc, _ := newPaymentFixtures(t)

	p, err := svc.Create(context.Background(), "t1", "user-1", model.MethodPix)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.Get(context.Background(), p.ID, "user-2")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestPaymentService_ApproveThenRefund(t *testing.T) {
	svc, store := newPaymentFixtures(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "t1", "user-1", model.MethodPix)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, p.ID, "txn-42")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, approved.Status)
	require.NotNil(t, approved.GatewayTxnID)
	assert.Equal(t, "txn-42", *approved.GatewayTxnID)

	// A second gateway approval event is a no-op conflict, not a success.
	_, err = svc.Approve(ctx, p.ID, "txn-43")
	require.ErrorIs(t, err, model.ErrInvalidOperation)

	refunded, err := svc.Refund(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundedAt)

	stored, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, stored.Status)
}

func TestPaymentService_RejectAndRefundGuards(t *testing.T) {
	svc, _ := newPaymentFixtures(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "t1", "user-1", model.MethodCreditCard)
	require.NoError(t, err)

	// Refund requires an approved payment.
	_, err = svc.Refund(ctx, p.ID)
	require.ErrorIs(t, err, model.ErrInvalidOperation)

	rejected, err := svc.Reject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRejected, rejected.Status)

	_, err = svc.Refund(ctx, p.ID)
	require.ErrorIs(t, err, model.ErrInvalidOperation)
	_, err = svc.Approve(ctx, p.ID, "txn-1")
	require.ErrorIs(t, err, model.ErrInvalidOperation)
}

func TestPaymentService_PixQRImage(t *testing.T) {
	svc, _ := newPaymentFixtures(t)
	ctx := context.Background()

	pix, err := svc.Create(ctx, "t1", "user-1", model.MethodPix)
	require.NoError(t, err)
	card, err := svc.Create(ctx, "t2", "user-2", model.MethodCreditCard)
	require.NoError(t, err)

	img, err := svc.PixQRImage(ctx, pix.ID, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, img)

	_, err = svc.PixQRImage(ctx, card.ID, "user-2")
	require.ErrorIs(t, err, model.ErrInvalidOperation)
}
