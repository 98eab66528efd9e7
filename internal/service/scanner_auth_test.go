package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/utils"
)

type fakeScannerStore struct {
	scanners map[string]model.Scanner
}

func newFakeScannerStore(scs ...model.Scanner) *fakeScannerStore {
	s := &fakeScannerStore{scanners: make(map[string]model.Scanner)}
	for _, sc := range scs {
		s.scanners[sc.ID] = sc
	}
	return s
}

func (s *fakeScannerStore) Create(_ context.Context, sc model.Scanner) error {
	s.scanners[sc.ID] = sc
	return nil
}

func (s *fakeScannerStore) GetByID(_ context.Context, id string) (*model.Scanner, error) {
	sc, ok := s.scanners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sc, nil
}

func (s *fakeScannerStore) GetByAPIKey(_ context.Context, apiKey string) (*model.Scanner, error) {
	for _, sc := range s.scanners {
		if sc.APIKey == apiKey {
			out := sc
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeScannerStore) List(_ context.Context) ([]model.Scanner, error) {
	out := make([]model.Scanner, 0, len(s.scanners))
	for _, sc := range s.scanners {
		out = append(out, sc)
	}
	return out, nil
}

func (s *fakeScannerStore) UpdateRoleStatus(_ context.Context, id string, role model.ScannerRole, status model.ScannerStatus) error {
	sc, ok := s.scanners[id]
	if !ok {
		return repository.ErrNotFound
	}
	sc.Role = role
	sc.Status = status
	s.scanners[id] = sc
	return nil
}

func (s *fakeScannerStore) TouchLastUsed(_ context.Context, id string, at time.Time, ip string) error {
	sc, ok := s.scanners[id]
	if !ok {
		return repository.ErrNotFound
	}
	sc.LastUsedAt = &at
	sc.LastUsedIP = &ip
	s.scanners[id] = sc
	return nil
}

func (s *fakeScannerStore) Delete(_ context.Context, id string) error {
	if _, ok := s.scanners[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.scanners, id)
	return nil
}

const testJWTSecret = "test-signing-secret"

func registeredScanner(t *testing.T, secret string) model.Scanner {
	t.Helper()
	hash, err := utils.HashSecret(secret, bcrypt.MinCost)
	require.NoError(t, err)
	return model.Scanner{
		ID:         "scanner-1",
		Name:       "Gate A handheld",
		Location:   "Gate A",
		APIKey:     utils.APIKeyPrefix + "abc123def456",
		SecretHash: hash,
		Role:       model.RoleValidator,
		Status:     model.ScannerActive,
		CreatedAt:  time.Now().UTC(),
	}
}

func newAuthService(store ScannerStore) *ScannerAuth {
	return NewScannerAuth(quietLogger(), store, NopAuditPublisher{}, testJWTSecret, 15*time.Minute, bcrypt.MinCost)
}

func TestScannerAuth_Authenticate(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	store := newFakeScannerStore(sc)
	svc := newAuthService(store)

	res, err := svc.Authenticate(context.Background(), sc.APIKey, "device-secret", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, sc.ID, res.Scanner.ID)
	assert.Equal(t, []string{model.CapValidateTickets}, res.Permissions)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), res.ExpiresAt, 5*time.Second)

	// Successful auth records last use for the audit trail.
	stored, err := store.GetByID(context.Background(), sc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)
	require.NotNil(t, stored.LastUsedIP)
	assert.Equal(t, "10.0.0.1", *stored.LastUsedIP)
}

func TestScannerAuth_RejectsBadCredentials(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	svc := newAuthService(newFakeScannerStore(sc))
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "missing-prefix-key", "device-secret", "10.0.0.1")
	require.ErrorIs(t, err, ErrMalformedAPIKey)

	_, err = svc.Authenticate(ctx, utils.APIKeyPrefix+"unknown", "device-secret", "10.0.0.1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(ctx, sc.APIKey, "wrong-secret", "10.0.0.1")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(ctx, sc.APIKey, "", "10.0.0.1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScannerAuth_InactiveScannerCannotAuthenticate(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	sc.Status = model.ScannerSuspended
	svc := newAuthService(newFakeScannerStore(sc))

	_, err := svc.Authenticate(context.Background(), sc.APIKey, "device-secret", "10.0.0.1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScannerAuth_VerifyToken(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	store := newFakeScannerStore(sc)
	svc := newAuthService(store)

	res, err := svc.Authenticate(context.Background(), sc.APIKey, "device-secret", "10.0.0.1")
	require.NoError(t, err)

	got, perms, err := svc.VerifyToken(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
	assert.Equal(t, []string{model.CapValidateTickets}, perms)
}

func TestScannerAuth_SuspensionRevokesLiveTokens(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	store := newFakeScannerStore(sc)
	svc := newAuthService(store)

	res, err := svc.Authenticate(context.Background(), sc.APIKey, "device-secret", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.UpdateRoleStatus(context.Background(), sc.ID, sc.Role, model.ScannerSuspended)
	require.NoError(t, err)

	// The token has not expired, but the credential behind it has.
	_, _, err = svc.VerifyToken(context.Background(), res.Token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScannerAuth_RoleChangeTakesEffectImmediately(t *testing.T) {
	sc := registeredScanner(t, "device-secret")
	store := newFakeScannerStore(sc)
	svc := newAuthService(store)

	res, err := svc.Authenticate(context.Background(), sc.APIKey, "device-secret", "10.0.0.1")
	require.NoError(t, err)

	_, err = svc.UpdateRoleStatus(context.Background(), sc.ID, model.RoleManager, model.ScannerActive)
	require.NoError(t, err)

	// Capabilities come from the stored role, not the token claims.
	_, perms, err := svc.VerifyToken(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{model.CapValidateTickets, model.CapCheckInTickets}, perms)
}

func TestScannerAuth_VerifyToken_Garbage(t *testing.T) {
	svc := newAuthService(newFakeScannerStore())
	_, _, err := svc.VerifyToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScannerAuth_Register(t *testing.T) {
	store := newFakeScannerStore()
	svc := newAuthService(store)

	reg, err := svc.Register(context.Background(), "Gate B handheld", "Gate B", "")
	require.NoError(t, err)

	assert.Equal(t, model.RoleValidator, reg.Scanner.Role, "role defaults to VALIDATOR")
	assert.Equal(t, model.ScannerActive, reg.Scanner.Status)
	assert.True(t, strings.HasPrefix(reg.Scanner.APIKey, utils.APIKeyPrefix))
	assert.Len(t, reg.SecretKey, 64)
	assert.NotEqual(t, reg.SecretKey, reg.Scanner.SecretHash, "only the hash is stored")

	// The plaintext secret returned once must verify against the stored hash.
	stored, err := store.GetByID(context.Background(), reg.Scanner.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifySecret(stored.SecretHash, reg.SecretKey))

	_, err = svc.Register(context.Background(), "Bad", "Nowhere", "OWNER")
	require.Error(t, err)
}
