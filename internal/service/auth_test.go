package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

const testSecret = "test-secret-key"

type fakeIdentityRepo struct {
	identities map[string]*entity.Identity
	saved      []*entity.Identity
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[string]*entity.Identity)}
}

func (that *fakeIdentityRepo) Save(_ context.Context, identity *entity.Identity) error {
	that.identities[identity.ID] = identity
	that.saved = append(that.saved, identity)

	return nil
}

func (that *fakeIdentityRepo) GetByID(_ context.Context, id string) (*entity.Identity, error) {
	identity, ok := that.identities[id]
	if !ok {
		return nil, apperror.ErrIdentityNotFound
	}

	return identity, nil
}

func signedToken(t *testing.T, secret string, claims sessionClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Resolves a known identity from the store", func(t *testing.T) {
		// Given: an identity already on record
		repo := newFakeIdentityRepo()
		repo.identities["player-1"] = &entity.Identity{ID: "player-1", Name: "Stored Name"}

		auth := NewAuthService(logger, testSecret, repo)
		token := signedToken(t, testSecret, sessionClaims{
			Name:             "Token Name",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "player-1"},
		})

		// When: authenticating with a valid token
		identity, err := auth.Authenticate(ctx, token)

		// Then: the stored record wins over the token claims
		require.NoError(t, err)
		assert.Equal(t, "player-1", identity.ID)
		assert.Equal(t, "Stored Name", identity.Name)
		assert.Empty(t, repo.saved)
	})

	t.Run("Caches a first-time identity from the token claims", func(t *testing.T) {
		// Given: an empty store
		repo := newFakeIdentityRepo()
		auth := NewAuthService(logger, testSecret, repo)

		token := signedToken(t, testSecret, sessionClaims{
			Wallet:           "0xabc",
			Name:             "Newcomer",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "player-2"},
		})

		// When: the identity authenticates for the first time
		identity, err := auth.Authenticate(ctx, token)

		// Then: the record from the token claims was saved
		require.NoError(t, err)
		assert.Equal(t, "player-2", identity.ID)
		assert.Equal(t, "0xabc", identity.Wallet)
		require.Len(t, repo.saved, 1)
		assert.Equal(t, "player-2", repo.saved[0].ID)
	})

	t.Run("Fails on an empty token", func(t *testing.T) {
		// Given: any auth service
		auth := NewAuthService(logger, testSecret, newFakeIdentityRepo())

		// When: authenticating with no token
		_, err := auth.Authenticate(ctx, "")

		// Then: authentication fails
		assert.ErrorIs(t, err, apperror.ErrAuthenticationFailed)
	})

	t.Run("Fails on a token signed with the wrong key", func(t *testing.T) {
		// Given: a token signed with a different secret
		auth := NewAuthService(logger, testSecret, newFakeIdentityRepo())
		token := signedToken(t, "some-other-key", sessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "player-3"},
		})

		// When: authenticating
		_, err := auth.Authenticate(ctx, token)

		// Then: authentication fails
		assert.ErrorIs(t, err, apperror.ErrAuthenticationFailed)
	})

	t.Run("Fails on an expired token", func(t *testing.T) {
		// Given: a token that expired an hour ago
		auth := NewAuthService(logger, testSecret, newFakeIdentityRepo())
		token := signedToken(t, testSecret, sessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "player-4",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		// When: authenticating
		_, err := auth.Authenticate(ctx, token)

		// Then: authentication fails
		assert.ErrorIs(t, err, apperror.ErrAuthenticationFailed)
	})

	t.Run("Fails on a token without a subject", func(t *testing.T) {
		// Given: a signed token carrying no subject
		auth := NewAuthService(logger, testSecret, newFakeIdentityRepo())
		token := signedToken(t, testSecret, sessionClaims{Name: "No Subject"})

		// When: authenticating
		_, err := auth.Authenticate(ctx, token)

		// Then: authentication fails
		assert.ErrorIs(t, err, apperror.ErrAuthenticationFailed)
	})
}
