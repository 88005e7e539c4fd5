package mapping

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

// Store holds learned text → category mappings per user. Keys are passed
// through tracking.MappingKey by implementations.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID, text string) (*tracking.CategoryMapping, error)
	Upsert(ctx context.Context, userID uuid.UUID, text string, categoryID, subcategoryID uuid.UUID, confidence float64) error
}

type memoryKey struct {
	user uuid.UUID
	text string
}

// MemoryStore is an in-process Store. It backs tests and the offline CLI and
// serves as the per-request snapshot of a user's mappings.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[memoryKey]tracking.CategoryMapping
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[memoryKey]tracking.CategoryMapping{}, now: time.Now}
}

// NewMemoryStoreFrom seeds a store with existing rows; later rows win on
// duplicate keys.
func NewMemoryStoreFrom(rows []*tracking.CategoryMapping) *MemoryStore {
	s := NewMemoryStore()
	for _, r := range rows {
		if r == nil {
			continue
		}
		cp := *r
		cp.TextInput = tracking.MappingKey(cp.TextInput)
		s.rows[memoryKey{user: cp.UserID, text: cp.TextInput}] = cp
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID, text string) (*tracking.CategoryMapping, error) {
	key := tracking.MappingKey(text)
	if key == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[memoryKey{user: userID, text: key}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, userID uuid.UUID, text string, categoryID, subcategoryID uuid.UUID, confidence float64) error {
	key := tracking.MappingKey(text)
	if key == "" {
		return nil
	}
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	mk := memoryKey{user: userID, text: key}
	row, ok := s.rows[mk]
	if !ok {
		row = tracking.CategoryMapping{ID: uuid.New(), UserID: userID, TextInput: key, CreatedAt: now}
	}
	row.CategoryID = categoryID
	row.SubcategoryID = subcategoryID
	row.ConfidenceScore = confidence
	row.UpdatedAt = now
	s.rows[mk] = row
	return nil
}

// List returns every mapping of userID.
func (s *MemoryStore) List(userID uuid.UUID) []tracking.CategoryMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]tracking.CategoryMapping, 0)
	for k, v := range s.rows {
		if k.user == userID {
			out = append(out, v)
		}
	}
	return out
}
