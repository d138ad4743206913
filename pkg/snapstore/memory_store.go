package snapstore

import (
	"context"
	"sync"
	"time"

	frozen "github.com/goliatone/go-frozen"
	"github.com/google/uuid"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. It uses Ref.Identifier() as its deterministic key and makes
// no persistence assumptions beyond that.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	payload frozen.Payload
	meta    Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (frozen.Payload, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return frozen.Payload{}, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return frozen.Payload{}, Meta{}, false, nil
	}
	return record.payload, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, payload frozen.Payload, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		if err := checkETag(meta.ETag, existing.meta.ETag); err != nil {
			return Meta{}, err
		}
	}

	saved := cloneMeta(meta)
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = time.Now().UTC()

	s.records[key] = memoryRecord{payload: payload, meta: saved}
	return cloneMeta(saved), nil
}
