package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/venuehq/ticket-gate/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique-key violation.
const mysqlDupEntry = 1062

// PaymentRepo provides data access to the payments table. A unique key on
// ticket_id guarantees at most one payment per ticket regardless of how
// many purchase attempts race each other.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, ticket_id, payer_id, amount, method, status,
	pix_payload, gateway_txn_id, created_at, approved_at, refunded_at`

// Create inserts a new payment row. A duplicate ticket_id is reported as
// ErrPaymentExists.
func (r *PaymentRepo) Create(ctx context.Context, p model.Payment) error {
	const q = `INSERT INTO payments
		(id, ticket_id, payer_id, amount, method, status, pix_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.TicketID, p.PayerID, p.Amount, string(p.Method), string(p.Status),
		p.PixPayload, p.CreatedAt.UTC(),
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDupEntry {
		return ErrPaymentExists
	}
	return err
}

// GetByID returns a single payment or ErrNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	return scanPaymentRow(r.db.QueryRowContext(ctx, q, id))
}

// GetByTicketID returns the payment attached to a ticket or ErrNotFound.
func (r *PaymentRepo) GetByTicketID(ctx context.Context, ticketID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE ticket_id = ?`
	return scanPaymentRow(r.db.QueryRowContext(ctx, q, ticketID))
}

// ListByPayer returns all payments made by a user, newest first.
func (r *PaymentRepo) ListByPayer(ctx context.Context, payerID string) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE payer_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// Update persists a state transition conditionally on the row still being
// in the expected prior status, so concurrent transitions cannot clobber
// each other. It reports whether the row was updated.
func (r *PaymentRepo) Update(ctx context.Context, p model.Payment, expect model.PaymentStatus) (bool, error) {
	const q = `UPDATE payments
		SET status = ?, gateway_txn_id = ?, approved_at = ?, refunded_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(p.Status), p.GatewayTxnID, p.ApprovedAt, p.RefundedAt,
		p.ID, string(expect),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanPaymentRow(row *sql.Row) (*model.Payment, error) {
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	var method, status string
	var pixPayload, gatewayTxnID sql.NullString
	var approvedAt, refundedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.TicketID, &p.PayerID, &p.Amount, &method, &status,
		&pixPayload, &gatewayTxnID, &p.CreatedAt, &approvedAt, &refundedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	if pixPayload.Valid {
		v := pixPayload.String
		p.PixPayload = &v
	}
	if gatewayTxnID.Valid {
		v := gatewayTxnID.String
		p.GatewayTxnID = &v
	}
	if approvedAt.Valid {
		at := approvedAt.Time
		p.ApprovedAt = &at
	}
	if refundedAt.Valid {
		at := refundedAt.Time
		p.RefundedAt = &at
	}
	return &p, nil
}
