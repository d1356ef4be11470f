package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// IdentityCasdoor resolves identities against Casdoor, caching lookups in Redis
type IdentityCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client

	cachePrefix string
	cacheTTL    time.Duration
}

func NewIdentityCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.IdentityRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &IdentityCasdoor{
		client:      client,
		redis:       redisClient,
		cachePrefix: "identity:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (i *IdentityCasdoor) getCacheKey(id string) string {
	return i.cachePrefix + id
}

func (i *IdentityCasdoor) getFromCache(ctx context.Context, id string) (*models.Identity, error) {
	if i.redis == nil {
		return nil, nil
	}

	data, err := i.redis.Get(ctx, i.getCacheKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached identity: %w", err)
	}
	return &identity, nil
}

func (i *IdentityCasdoor) setCache(ctx context.Context, identity *models.Identity) {
	if i.redis == nil {
		return
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return
	}
	i.redis.Set(ctx, i.getCacheKey(identity.ID), data, i.cacheTTL)
}

func (i *IdentityCasdoor) dropCache(ctx context.Context, id string) {
	if i.redis != nil {
		i.redis.Del(ctx, i.getCacheKey(id))
	}
}

func toIdentity(user *casdoorsdk.User) *models.Identity {
	return &models.Identity{
		ID:          user.Id,
		Email:       strings.ToLower(strings.TrimSpace(user.Email)),
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
		Forbidden:   user.IsForbidden,
	}
}

// ===== OPERATIONS =====

func (i *IdentityCasdoor) ParseToken(token string) (*models.Identity, error) {
	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.User.Id == "" {
		return nil, fmt.Errorf("token carries no user id")
	}
	return toIdentity(&claims.User), nil
}

func (i *IdentityCasdoor) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	if cached, err := i.getFromCache(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	user, err := i.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if user == nil {
		return nil, repositories.ErrNotFound
	}

	identity := toIdentity(user)
	i.setCache(ctx, identity)
	return identity, nil
}

func (i *IdentityCasdoor) SetForbidden(ctx context.Context, id string, forbidden bool) error {
	user, err := i.client.GetUserByUserId(id)
	if err != nil {
		return fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if user == nil {
		return repositories.ErrNotFound
	}

	user.IsForbidden = forbidden
	ok, err := i.client.UpdateUserForColumns(user, []string{"isForbidden"})
	if err != nil {
		return fmt.Errorf("failed to update user in Casdoor: %w", err)
	}
	if !ok {
		return fmt.Errorf("casdoor rejected update for user %s", id)
	}

	i.dropCache(ctx, id)
	return nil
}
