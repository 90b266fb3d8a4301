package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

type IdentityRepository interface {
	Save(ctx context.Context, identity *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
}

type dbIdentity struct {
	client *redis.Client
}

func NewIdentityRepository(client *redis.Client) IdentityRepository {
	return &dbIdentity{
		client: client,
	}
}

func (that *dbIdentity) Save(ctx context.Context, identity *entity.Identity) error {
	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	identityKey := "identity:" + identity.ID
	if err = that.client.Set(ctx, identityKey, identityJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set identity: %w", err)
	}

	return nil
}

func (that *dbIdentity) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	identityKey := "identity:" + id

	response, err := that.client.Get(ctx, identityKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrIdentityNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get identity by ID: %w", err)
	}

	var existing entity.Identity
	if err = json.Unmarshal([]byte(response), &existing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}

	return &existing, nil
}
