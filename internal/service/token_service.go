package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/pkg/crypto"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// maxIssueAttempts bounds token regeneration on collision.
const maxIssueAttempts = 5

// TokenService issues and resolves opaque bearer tokens.
// Bindings are kept in a repository.Cache under the SHA-256 digest of the token.
type TokenService struct {
	cache    repository.Cache
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	generate func() (string, error)
	now      func() time.Time
}

// NewTokenService creates a new TokenService.
// A zero ttl issues tokens that never expire.
func NewTokenService(cache repository.Cache, ttl time.Duration, m *metrics.Metrics, logger zerolog.Logger) *TokenService {
	return &TokenService{
		cache:    cache,
		ttl:      ttl,
		metrics:  m,
		logger:   logger.With().Str("service", "token").Logger(),
		generate: crypto.GenerateToken,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a fresh token bound to userID.
func (s *TokenService) Issue(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", domain.ErrUnauthenticated
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		value, err := s.generate()
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to generate token")
			return "", fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		now := s.now()
		token := domain.Token{
			Value:    value,
			UserID:   userID,
			IssuedAt: now,
		}
		if s.ttl > 0 {
			expiresAt := now.Add(s.ttl)
			token.ExpiresAt = &expiresAt
		}

		// The token value itself is never persisted.
		stored := token
		stored.Value = ""
		payload, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		ok, err := s.cache.SetNX(ctx, repository.CacheKeys.Token(crypto.HashToken(value)), payload, s.ttl)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to store token")
			return "", fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if !ok {
			s.logger.Warn().Int("attempt", attempt).Msg("token collision, regenerating")
			continue
		}

		s.metrics.RecordTokenIssued()
		s.logger.Debug().Int64("user_id", userID).Msg("token issued")
		return value, nil
	}

	s.logger.Error().Int64("user_id", userID).Msg("token collisions exhausted all attempts")
	return "", fmt.Errorf("%w: %w", ErrInternalError, ErrTokenExhausted)
}

// Resolve returns the user bound to token.
// Empty, malformed, unknown, expired or unreadable tokens resolve to no identity.
func (s *TokenService) Resolve(ctx context.Context, token string) (int64, bool) {
	userID, ok := s.resolve(ctx, token)
	s.metrics.RecordTokenResolution(ok)
	return userID, ok
}

func (s *TokenService) resolve(ctx context.Context, token string) (int64, bool) {
	if crypto.ValidateToken(token) != nil {
		return 0, false
	}

	payload, err := s.cache.Get(ctx, repository.CacheKeys.Token(crypto.HashToken(token)))
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("token lookup failed")
		}
		return 0, false
	}

	var stored domain.Token
	if err := json.Unmarshal(payload, &stored); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable token binding")
		return 0, false
	}
	if stored.UserID <= 0 || stored.IsExpired() {
		return 0, false
	}
	return stored.UserID, true
}

// Revoke removes the binding of token. Revoking an unknown token is not an error.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if crypto.ValidateToken(token) != nil {
		return nil
	}
	if err := s.cache.Delete(ctx, repository.CacheKeys.Token(crypto.HashToken(token))); err != nil {
		s.logger.Error().Err(err).Msg("failed to revoke token")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.logger.Debug().Msg("token revoked")
	return nil
}
