package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/wellness-backend/internal/platform/apierr"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

const (
	pendingMarker     = "pending"
	maxIdempotencyKey = 128
)

// StoredResponse is a completed bulk submission replayed for a repeated key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyStore guards bulk submissions keyed by the Idempotency-Key header.
// Begin returns a stored response for a completed key, ErrSubmissionInFlight
// while another request holds it, and (nil, nil) once the caller owns it.
type IdempotencyStore interface {
	Begin(ctx context.Context, userID uuid.UUID, key string) (*StoredResponse, error)
	Complete(ctx context.Context, userID uuid.UUID, key string, resp StoredResponse) error
	Release(ctx context.Context, userID uuid.UUID, key string) error
}

func ValidateIdempotencyKey(key string) error {
	if len(key) > maxIdempotencyKey {
		return InvalidInput(fmt.Sprintf("Idempotency-Key must be at most %d characters", maxIdempotencyKey))
	}
	return nil
}

func inFlight() error {
	return apierr.New(http.StatusConflict, "submission_in_progress", ErrSubmissionInFlight)
}

type redisIdempotencyStore struct {
	log        *logger.Logger
	rdb        goredis.UniversalClient
	prefix     string
	pendingTTL time.Duration
	resultTTL  time.Duration
}

func NewRedisIdempotencyStore(log *logger.Logger, rdb goredis.UniversalClient, pendingTTL, resultTTL time.Duration) IdempotencyStore {
	return &redisIdempotencyStore{
		log:        log.With("service", "RedisIdempotencyStore"),
		rdb:        rdb,
		prefix:     "idem:bulk",
		pendingTTL: pendingTTL,
		resultTTL:  resultTTL,
	}
}

func (s *redisIdempotencyStore) key(userID uuid.UUID, key string) string {
	return s.prefix + ":" + userID.String() + ":" + strings.TrimSpace(key)
}

func (s *redisIdempotencyStore) Begin(ctx context.Context, userID uuid.UUID, key string) (*StoredResponse, error) {
	k := s.key(userID, key)
	acquired, err := s.rdb.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("idempotency begin: %w", err)
	}
	if acquired {
		return nil, nil
	}
	raw, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, goredis.Nil) {
		// expired between SETNX and GET; let the caller retry the claim
		return nil, inFlight()
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if raw == pendingMarker {
		return nil, inFlight()
	}
	var stored StoredResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.log.Warn("corrupt idempotency record, discarding", "error", err)
		_ = s.rdb.Del(ctx, k).Err()
		return nil, inFlight()
	}
	return &stored, nil
}

func (s *redisIdempotencyStore) Complete(ctx context.Context, userID uuid.UUID, key string, resp StoredResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(userID, key), raw, s.resultTTL).Err()
}

func (s *redisIdempotencyStore) Release(ctx context.Context, userID uuid.UUID, key string) error {
	return s.rdb.Del(ctx, s.key(userID, key)).Err()
}

type memoryRecord struct {
	resp      *StoredResponse
	expiresAt time.Time
}

// memoryIdempotencyStore serves single-instance deployments without redis.
type memoryIdempotencyStore struct {
	mu         sync.Mutex
	rows       map[string]memoryRecord
	pendingTTL time.Duration
	resultTTL  time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

// memorySweepInterval bounds how often Begin scans for expired records.
const memorySweepInterval = time.Minute

func NewMemoryIdempotencyStore(pendingTTL, resultTTL time.Duration) IdempotencyStore {
	return &memoryIdempotencyStore{
		rows:       map[string]memoryRecord{},
		pendingTTL: pendingTTL,
		resultTTL:  resultTTL,
		now:        time.Now,
	}
}

func memoryKey(userID uuid.UUID, key string) string {
	return userID.String() + ":" + strings.TrimSpace(key)
}

func (s *memoryIdempotencyStore) Begin(_ context.Context, userID uuid.UUID, key string) (*StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memoryKey(userID, key)
	now := s.now()
	s.sweepLocked(now)
	if rec, ok := s.rows[k]; ok && now.Before(rec.expiresAt) {
		if rec.resp == nil {
			return nil, inFlight()
		}
		cp := *rec.resp
		return &cp, nil
	}
	s.rows[k] = memoryRecord{expiresAt: now.Add(s.pendingTTL)}
	return nil, nil
}

func (s *memoryIdempotencyStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < memorySweepInterval {
		return
	}
	s.lastSweep = now
	for k, rec := range s.rows {
		if !now.Before(rec.expiresAt) {
			delete(s.rows, k)
		}
	}
}

func (s *memoryIdempotencyStore) Complete(_ context.Context, userID uuid.UUID, key string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[memoryKey(userID, key)] = memoryRecord{resp: &resp, expiresAt: s.now().Add(s.resultTTL)}
	return nil
}

func (s *memoryIdempotencyStore) Release(_ context.Context, userID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, memoryKey(userID, key))
	return nil
}
