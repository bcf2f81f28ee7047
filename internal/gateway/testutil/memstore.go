package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/domain/repository"
	apperrors "buildmarket/internal/shared/errors"
)

// MemStore is an in-memory EntityStore for tests. It mirrors the Mongo
// store's contract: not-found sentinels, equality-only criteria, single-field
// sort, enforced limit.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]map[string]model.Entity
	seq         int

	// FindErr, when set, is returned by every Find call. Used to simulate
	// store-side indexing failures.
	FindErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]map[string]model.Entity)}
}

func (s *MemStore) collection(kind model.Kind) map[string]model.Entity {
	name := kind.Collection()
	if s.collections[name] == nil {
		s.collections[name] = make(map[string]model.Entity)
	}
	return s.collections[name]
}

// Seed inserts a record directly, bypassing gateway stamping.
func (s *MemStore) Seed(kind model.Kind, id string, fields model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(kind)[id] = fields.WithID(id)
}

func (s *MemStore) Find(ctx context.Context, kind model.Kind, q model.Query) ([]model.Entity, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	q = q.Normalized()

	var matched []model.Entity
	for _, entity := range s.collection(kind) {
		if matches(entity, q.Criteria) {
			matched = append(matched, entity.Clone())
		}
	}

	if field, descending := q.SortField(); field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][field], matched[j][field])
			if descending {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		// Deterministic fallback ordering for tests; callers must not rely
		// on ordering without a sort spec.
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ID() < matched[j].ID()
		})
	}

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *MemStore) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.collection(kind)[id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
	}
	return entity.Clone(), nil
}

func (s *MemStore) Insert(ctx context.Context, kind model.Kind, fields model.Entity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := fmt.Sprintf("%024x", s.seq)
	s.collection(kind)[id] = fields.WithID(id)
	return id, nil
}

func (s *MemStore) InsertWithID(ctx context.Context, kind model.Kind, id string, fields model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collection(kind)[id]; exists {
		return fmt.Errorf("%s %q already exists: %w", kind, id, apperrors.ErrInvalidInput)
	}
	s.collection(kind)[id] = fields.WithID(id)
	return nil
}

func (s *MemStore) Update(ctx context.Context, kind model.Kind, id string, fields model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collection(kind)[id]
	if !ok {
		return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
	}
	s.collection(kind)[id] = existing.Merge(fields).WithID(id)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collection(kind)[id]; !ok {
		return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
	}
	delete(s.collection(kind), id)
	return nil
}

func matches(entity model.Entity, criteria map[string]interface{}) bool {
	for field, want := range criteria {
		got, ok := entity[field]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

var _ repository.EntityStore = (*MemStore)(nil)
