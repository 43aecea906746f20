package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	sessionKeyPrefix = "session:"
	maxUpdateRetries = 10
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session is being changed concurrently")
)

type SessionRepository interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Update(ctx context.Context, id string, fn func(session *entity.Session) error) error
	DeleteByID(ctx context.Context, id string) error
}

type dbSession struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository - sessions expire ttl after their last save; zero keeps them until deleted.
func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &dbSession{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSession) CreateOrUpdate(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	err = that.client.Set(ctx, sessionKeyPrefix+session.ID, sessionJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	var existingSession entity.Session
	if err = json.Unmarshal([]byte(response), &existingSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &existingSession, nil
}

// Update - reads the session, lets fn change it and writes it back only if nobody
// else wrote it in between. On a concurrent write fn runs again on the fresh session.
// An error from fn aborts the update and is returned as is.
func (that *dbSession) Update(ctx context.Context, id string, fn func(session *entity.Session) error) error {
	key := sessionKeyPrefix + id

	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get session by id: %w", err)
		}

		var session entity.Session
		if err = json.Unmarshal([]byte(response), &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		if err = fn(&session); err != nil {
			return err
		}

		sessionJSON, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("could not marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, sessionJSON, that.ttl)
			return nil
		})

		return err
	}

	for range maxUpdateRetries {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return ErrSessionConflict
}

func (that *dbSession) DeleteByID(ctx context.Context, id string) error {
	err := that.client.Del(ctx, sessionKeyPrefix+id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session by id: %w", err)
	}

	return nil
}
