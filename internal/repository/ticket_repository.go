package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/venuehq/ticket-gate/internal/model"
)

// TicketRepo provides data access to the tickets table. Tickets are never
// physically deleted; every lifecycle change is a status update so the full
// redemption history stays available for audit.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, event_id, category_id, owner_id, owner_name, owner_email,
	price, code, qr_payload, status, event_starts_at, purchased_at,
	used_at, transferred_at, transferred_to`

// CreateAll inserts all tickets of a purchase as one multi-row INSERT. The
// statement is atomic: either every ticket row lands or none does, so a
// failed purchase cannot leave orphan ACTIVE tickets behind. All timestamps
// are stored in UTC.
func (r *TicketRepo) CreateAll(ctx context.Context, ts []model.Ticket) error {
	if len(ts) == 0 {
		return nil
	}
	values := make([]string, 0, len(ts))
	args := make([]any, 0, len(ts)*12)
	for _, t := range ts {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.ID, t.EventID, t.CategoryID, t.OwnerID, t.OwnerName, t.OwnerEmail,
			t.Price, t.Code, t.QRPayload, string(t.Status),
			t.EventStartsAt.UTC(), t.PurchasedAt.UTC(),
		)
	}
	q := `INSERT INTO tickets
		(id, event_id, category_id, owner_id, owner_name, owner_email,
		 price, code, qr_payload, status, event_starts_at, purchased_at)
		VALUES ` + strings.Join(values, ", ")
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// GetByID returns a single ticket or ErrNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByCode resolves a scanned code against both the human-readable code
// and the opaque QR payload; either is accepted at the gate.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE code = ? OR qr_payload = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, code, code))
}

// ListByOwner returns all tickets owned by a user, newest first.
func (r *TicketRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE owner_id = ? ORDER BY purchased_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// MarkUsed performs the authoritative ACTIVE -> USED transition as a single
// conditional update and reports whether this call won. Zero rows affected
// means another scanner redeemed the ticket first (or it left ACTIVE some
// other way); at most one concurrent caller can ever observe true.
func (r *TicketRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	const q = `UPDATE tickets SET status = ?, used_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(model.TicketUsed), usedAt.UTC(), id, string(model.TicketActive))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Cancel performs the ACTIVE -> CANCELLED transition with the same
// conditional-update discipline as MarkUsed.
func (r *TicketRepo) Cancel(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE tickets SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q,
		string(model.TicketCancelled), id, string(model.TicketActive))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Transfer marks the source ticket TRANSFERRED and inserts the replacement
// ticket for the new owner in one transaction. The source update is
// conditional on the ticket still being ACTIVE; when that fails the whole
// transaction rolls back and false is returned.
func (r *TicketRepo) Transfer(ctx context.Context, id string, at time.Time, newOwnerID string, replacement model.Ticket) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	const upd = `UPDATE tickets SET status = ?, transferred_at = ?, transferred_to = ?
		WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, upd,
		string(model.TicketTransferred), at.UTC(), newOwnerID, id, string(model.TicketActive))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}

	const ins = `INSERT INTO tickets
		(id, event_id, category_id, owner_id, owner_name, owner_email,
		 price, code, qr_payload, status, event_starts_at, purchased_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		replacement.ID, replacement.EventID, replacement.CategoryID,
		replacement.OwnerID, replacement.OwnerName, replacement.OwnerEmail,
		replacement.Price, replacement.Code, replacement.QRPayload,
		string(replacement.Status), replacement.EventStartsAt.UTC(), replacement.PurchasedAt.UTC(),
	); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TicketRepo) scanOne(row *sql.Row) (*model.Ticket, error) {
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var status string
	var usedAt, transferredAt sql.NullTime
	var transferredTo sql.NullString
	err := row.Scan(
		&t.ID, &t.EventID, &t.CategoryID, &t.OwnerID, &t.OwnerName, &t.OwnerEmail,
		&t.Price, &t.Code, &t.QRPayload, &status, &t.EventStartsAt, &t.PurchasedAt,
		&usedAt, &transferredAt, &transferredTo,
	)
	if err != nil {
		return nil, err
	}
	t.Status = model.TicketStatus(status)
	if usedAt.Valid {
		at := usedAt.Time
		t.UsedAt = &at
	}
	if transferredAt.Valid {
		at := transferredAt.Time
		t.TransferredAt = &at
	}
	if transferredTo.Valid {
		to := transferredTo.String
		t.TransferredTo = &to
	}
	return &t, nil
}
