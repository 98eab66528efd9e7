package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/monitoring"
	"github.com/venuehq/ticket-gate/internal/queue"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/utils"
)

// ScannerStore is the persistence surface the auth service needs.
type ScannerStore interface {
	Create(ctx context.Context, s model.Scanner) error
	GetByID(ctx context.Context, id string) (*model.Scanner, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Scanner, error)
	List(ctx context.Context) ([]model.Scanner, error)
	UpdateRoleStatus(ctx context.Context, id string, role model.ScannerRole, status model.ScannerStatus) error
	TouchLastUsed(ctx context.Context, id string, at time.Time, ip string) error
	Delete(ctx context.Context, id string) error
}

// ScannerAuth exchanges long-lived device credentials for short-lived
// capability tokens and manages scanner registrations.
type ScannerAuth struct {
	log        *slog.Logger
	store      ScannerStore
	audit      AuditPublisher
	jwtSecret  string
	tokenTTL   time.Duration
	bcryptCost int
}

// NewScannerAuth returns a new ScannerAuth service.
func NewScannerAuth(log *slog.Logger, store ScannerStore, audit AuditPublisher, jwtSecret string, tokenTTL time.Duration, bcryptCost int) *ScannerAuth {
	return &ScannerAuth{
		log:        log,
		store:      store,
		audit:      audit,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// AuthResult is returned on successful authentication.
type AuthResult struct {
	Token       string
	ExpiresAt   time.Time
	Scanner     model.Scanner
	Permissions []string
}

// Authenticate verifies an (apiKey, secretKey) pair and issues a capability
// token. Every attempt, successful or not, is logged and published to the
// audit trail with the masked key and caller IP; the secret never appears
// anywhere.
func (s *ScannerAuth) Authenticate(ctx context.Context, apiKey, secretKey, ip string) (*AuthResult, error) {
	const op = "service.scannerauth.Authenticate"
	log := s.log.With("op", op, "api_key", utils.MaskAPIKey(apiKey), "ip", ip)

	if !strings.HasPrefix(apiKey, utils.APIKeyPrefix) {
		log.Warn("rejected malformed api key")
		s.recordAuth(ctx, "", apiKey, ip, "malformed_key")
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedAPIKey)
	}

	sc, err := s.store.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("unknown api key")
			s.recordAuth(ctx, "", apiKey, ip, "unknown_key")
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		log.Error("scanner lookup failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sc.IsActive() {
		log.Warn("scanner not active", "scanner_id", sc.ID, "status", sc.Status)
		s.recordAuth(ctx, sc.ID, apiKey, ip, "inactive")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if !utils.VerifySecret(sc.SecretHash, secretKey) {
		log.Warn("secret mismatch", "scanner_id", sc.ID)
		s.recordAuth(ctx, sc.ID, apiKey, ip, "bad_secret")
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastUsed(ctx, sc.ID, now, ip); err != nil {
		// Not fatal for the session, but the audit trail depends on it.
		log.Error("failed to record last use", "scanner_id", sc.ID, "err", err)
	}

	token, err := utils.NewScannerToken(s.jwtSecret, *sc, s.tokenTTL)
	if err != nil {
		log.Error("failed to sign token", "scanner_id", sc.ID, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("scanner authenticated", "scanner_id", sc.ID, "role", sc.Role)
	s.recordAuth(ctx, sc.ID, apiKey, ip, "ok")

	sc.LastUsedAt = &now
	sc.LastUsedIP = &ip
	return &AuthResult{
		Token:       token.Token,
		ExpiresAt:   token.Exp,
		Scanner:     *sc,
		Permissions: sc.Role.Capabilities(),
	}, nil
}

// VerifyToken validates a capability token and re-resolves the credential
// behind it. The status check happens here, at call time, so a suspended
// device loses access immediately even with an unexpired token.
func (s *ScannerAuth) VerifyToken(ctx context.Context, raw string) (*model.Scanner, []string, error) {
	const op = "service.scannerauth.VerifyToken"

	claims, err := utils.ParseScannerToken(s.jwtSecret, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	sc, err := s.store.GetByID(ctx, claims.ScannerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !sc.IsActive() {
		s.log.Warn("token for non-active scanner rejected",
			"op", op, "scanner_id", sc.ID, "status", sc.Status)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	// Capabilities come from the current role, not the token, so a role
	// downgrade takes effect without waiting for token expiry.
	return sc, sc.Role.Capabilities(), nil
}

// Registration is returned when a scanner is registered. SecretKey carries
// the plaintext secret exactly once; only its hash is stored.
type Registration struct {
	Scanner   model.Scanner
	SecretKey string
}

// Register creates a new scanner credential with a generated key pair.
// An empty role defaults to VALIDATOR; status starts ACTIVE.
func (s *ScannerAuth) Register(ctx context.Context, name, location string, role model.ScannerRole) (*Registration, error) {
	const op = "service.scannerauth.Register"
	log := s.log.With("op", op)

	if role == "" {
		role = model.RoleValidator
	}
	if !model.ValidRole(string(role)) {
		return nil, fmt.Errorf("%s: unknown role %q", op, role)
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	secret, err := utils.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hash, err := utils.HashSecret(secret, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sc := model.Scanner{
		ID:         uuid.NewString(),
		Name:       name,
		Location:   location,
		APIKey:     apiKey,
		SecretHash: hash,
		Role:       role,
		Status:     model.ScannerActive,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Create(ctx, sc); err != nil {
		log.Error("failed to create scanner", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("scanner registered", "scanner_id", sc.ID, "role", sc.Role, "api_key", utils.MaskAPIKey(apiKey))
	return &Registration{Scanner: sc, SecretKey: secret}, nil
}

// List returns all registered scanners.
func (s *ScannerAuth) List(ctx context.Context) ([]model.Scanner, error) {
	return s.store.List(ctx)
}

// UpdateRoleStatus changes a scanner's role and status. Revocation is a
// status change to SUSPENDED or INACTIVE; it takes effect on the device's
// next call because VerifyToken re-checks status.
func (s *ScannerAuth) UpdateRoleStatus(ctx context.Context, id string, role model.ScannerRole, status model.ScannerStatus) (*model.Scanner, error) {
	const op = "service.scannerauth.UpdateRoleStatus"
	if !model.ValidRole(string(role)) {
		return nil, fmt.Errorf("%s: unknown role %q", op, role)
	}
	if err := s.store.UpdateRoleStatus(ctx, id, role, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("scanner updated", "op", op, "scanner_id", id, "role", role, "status", status)
	return s.store.GetByID(ctx, id)
}

// Delete removes a scanner credential entirely.
func (s *ScannerAuth) Delete(ctx context.Context, id string) error {
	const op = "service.scannerauth.Delete"
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("scanner deleted", "op", op, "scanner_id", id)
	return nil
}

func (s *ScannerAuth) recordAuth(ctx context.Context, scannerID, apiKey, ip, result string) {
	monitoring.RecordAuth(result)
	_ = s.audit.Publish(ctx, queue.AuditEvent{
		Type:         queue.EventScannerAuth,
		ScannerID:    scannerID,
		APIKeyPrefix: utils.MaskAPIKey(apiKey),
		Result:       result,
		RemoteIP:     ip,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
}
