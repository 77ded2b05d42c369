package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-memory maps. Deleted rows are removed
// outright since nothing reads them back.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*User
	consumptions map[uuid.UUID]*Consumption

	now func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*User),
		consumptions: make(map[uuid.UUID]*Consumption),
		now:          time.Now,
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user User) (*User, error) {
	if err := ValidateUser(&user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phoneTaken(user.Phone, uuid.Nil) {
		return nil, ErrConflict
	}

	user.ID = uuid.New()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = &user

	out := user
	return &out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := *existing
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	if s.phoneTaken(updated.Phone, id) {
		return nil, ErrConflict
	}
	updated.UpdatedAt = s.now()
	s.users[id] = &updated

	out := updated
	return &out, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	for cid, c := range s.consumptions {
		if c.UserID == id {
			delete(s.consumptions, cid)
		}
	}
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, page Page) ([]*User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out := *u
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.String() < users[j].ID.String()
	})

	total := len(users)
	return paginate(users, page.Limit, page.Offset), total, nil
}

func (s *MemoryStore) CreateConsumption(ctx context.Context, record Consumption) (*Consumption, error) {
	if err := ValidateConsumption(&record); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[record.UserID]; !ok {
		return nil, Invalid("user_id", "user %s does not exist", record.UserID)
	}

	record.ID = uuid.New()
	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt
	s.consumptions[record.ID] = &record

	out := record
	return &out, nil
}

func (s *MemoryStore) GetConsumption(ctx context.Context, id uuid.UUID) (*Consumption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.consumptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) UpdateConsumption(ctx context.Context, id uuid.UUID, patch ConsumptionPatch) (*Consumption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.consumptions[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := *existing
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	if _, ok := s.users[updated.UserID]; !ok {
		return nil, Invalid("user_id", "user %s does not exist", updated.UserID)
	}
	updated.UpdatedAt = s.now()
	s.consumptions[id] = &updated

	out := updated
	return &out, nil
}

func (s *MemoryStore) DeleteConsumption(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consumptions[id]; !ok {
		return ErrNotFound
	}
	delete(s.consumptions, id)
	return nil
}

func (s *MemoryStore) ListConsumptions(ctx context.Context, filter ConsumptionFilter) ([]*Consumption, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Consumption
	for _, c := range s.consumptions {
		if !filter.Matches(c) {
			continue
		}
		out := *c
		result = append(result, &out)
	}

	// Newest first, matching the postgres ordering
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TransactionTime.Equal(result[j].TransactionTime) {
			return result[i].TransactionTime.After(result[j].TransactionTime)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	total := len(result)
	return paginate(result, filter.Limit, filter.Offset), total, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// phoneTaken must be called with s.mu held.
func (s *MemoryStore) phoneTaken(phone string, except uuid.UUID) bool {
	for id, u := range s.users {
		if id != except && u.Phone == phone {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
