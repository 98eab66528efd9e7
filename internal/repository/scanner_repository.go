package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/venuehq/ticket-gate/internal/model"
)

// ScannerRepo provides data access to the scanners table of registered
// scanning devices. Only the bcrypt hash of a device secret is ever stored.
type ScannerRepo struct {
	db *sql.DB
}

// NewScannerRepo returns a ScannerRepo bound to the given database.
func NewScannerRepo(db *sql.DB) *ScannerRepo { return &ScannerRepo{db: db} }

const scannerColumns = `id, name, location, api_key, secret_hash, role, status,
	last_used_at, last_used_ip, created_at`

// Create inserts a new scanner credential.
func (r *ScannerRepo) Create(ctx context.Context, s model.Scanner) error {
	const q = `INSERT INTO scanners
		(id, name, location, api_key, secret_hash, role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.Name, s.Location, s.APIKey, s.SecretHash,
		string(s.Role), string(s.Status), s.CreatedAt.UTC(),
	)
	return err
}

// GetByID returns a scanner credential or ErrNotFound.
func (r *ScannerRepo) GetByID(ctx context.Context, id string) (*model.Scanner, error) {
	const q = `SELECT ` + scannerColumns + ` FROM scanners WHERE id = ?`
	return scanScannerRow(r.db.QueryRowContext(ctx, q, id))
}

// GetByAPIKey resolves a credential by its public identifier or ErrNotFound.
func (r *ScannerRepo) GetByAPIKey(ctx context.Context, apiKey string) (*model.Scanner, error) {
	const q = `SELECT ` + scannerColumns + ` FROM scanners WHERE api_key = ?`
	return scanScannerRow(r.db.QueryRowContext(ctx, q, apiKey))
}

// List returns every registered scanner, newest first.
func (r *ScannerRepo) List(ctx context.Context) ([]model.Scanner, error) {
	const q = `SELECT ` + scannerColumns + ` FROM scanners ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scanners []model.Scanner
	for rows.Next() {
		s, err := scanScanner(rows)
		if err != nil {
			return nil, err
		}
		scanners = append(scanners, *s)
	}
	return scanners, rows.Err()
}

// UpdateRoleStatus changes the role and/or administrative status of a
// credential. It returns ErrNotFound when the scanner does not exist.
func (r *ScannerRepo) UpdateRoleStatus(ctx context.Context, id string, role model.ScannerRole, status model.ScannerStatus) error {
	const q = `UPDATE scanners SET role = ?, status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, string(role), string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastUsed records the time and caller IP of a successful
// authentication.
func (r *ScannerRepo) TouchLastUsed(ctx context.Context, id string, at time.Time, ip string) error {
	const q = `UPDATE scanners SET last_used_at = ?, last_used_ip = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, at.UTC(), ip, id)
	return err
}

// Delete removes a credential. Deletion is an explicit administrative
// action; authentication state changes go through UpdateRoleStatus.
func (r *ScannerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scanners WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanScannerRow(row *sql.Row) (*model.Scanner, error) {
	s, err := scanScanner(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func scanScanner(row rowScanner) (*model.Scanner, error) {
	var s model.Scanner
	var role, status string
	var lastUsedAt sql.NullTime
	var lastUsedIP sql.NullString
	err := row.Scan(
		&s.ID, &s.Name, &s.Location, &s.APIKey, &s.SecretHash,
		&role, &status, &lastUsedAt, &lastUsedIP, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Role = model.ScannerRole(role)
	s.Status = model.ScannerStatus(status)
	if lastUsedAt.Valid {
		at := lastUsedAt.Time
		s.LastUsedAt = &at
	}
	if lastUsedIP.Valid {
		ip := lastUsedIP.String
		s.LastUsedIP = &ip
	}
	return &s, nil
}
