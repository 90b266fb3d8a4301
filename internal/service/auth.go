package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
	"github.com/web3anand/tictactoe-gameserver/internal/repository"
)

// AuthService resolves a session token into an identity. The token is a
// signed JWT issued at wallet/social login; the store stays authoritative
// for the identity record itself.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (*entity.Identity, error)
}

type sessionClaims struct {
	Wallet string `json:"wallet,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	logger    *slog.Logger
	secretKey []byte
	identity  repository.IdentityRepository
}

func NewAuthService(logger *slog.Logger, secretKey string, identityRepo repository.IdentityRepository) AuthService {
	return &authService{
		logger:    logger.With("component", "auth"),
		secretKey: []byte(secretKey),
		identity:  identityRepo,
	}
}

func (that *authService) Authenticate(ctx context.Context, token string) (*entity.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", apperror.ErrAuthenticationFailed)
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", apperror.ErrAuthenticationFailed, t.Header["alg"])
		}
		return that.secretKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", apperror.ErrAuthenticationFailed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", apperror.ErrAuthenticationFailed)
	}

	identity, err := that.identity.GetByID(ctx, claims.Subject)
	if errors.Is(err, apperror.ErrIdentityNotFound) {
		// First time this identity connects after login; cache the
		// record the token vouches for.
		identity = &entity.Identity{
			ID:     claims.Subject,
			Wallet: claims.Wallet,
			Name:   claims.Name,
		}
		if saveErr := that.identity.Save(ctx, identity); saveErr != nil {
			return nil, fmt.Errorf("failed to save identity: %w", saveErr)
		}

		return identity, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return identity, nil
}
