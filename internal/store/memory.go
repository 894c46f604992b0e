// In-memory Store implementation. Used by tests and ephemeral deployments;
// it must behave identically to the GORM backend, including ordering,
// ownership-neutral error mapping, and the atomic quota increment.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// MemoryStore keeps all records in maps guarded by a single RWMutex. Values
// are copied on the way in and out so callers never share mutable state.
type MemoryStore struct {
	mu        sync.RWMutex
	vibes     map[string]domain.Vibe
	users     map[string]domain.UserProfile
	history   map[string]domain.AdviceHistory
	favorites map[string]domain.Favorite
	metrics   map[string]domain.MonthlyMetric // keyed userID + "|" + month
	now       func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vibes:     make(map[string]domain.Vibe),
		users:     make(map[string]domain.UserProfile),
		history:   make(map[string]domain.AdviceHistory),
		favorites: make(map[string]domain.Favorite),
		metrics:   make(map[string]domain.MonthlyMetric),
		now:       time.Now,
	}
}

// ---- Vibes ----

func (s *MemoryStore) SaveVibe(ctx context.Context, v *domain.Vibe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}
	v.UpdatedAt = s.now().UTC()
	s.vibes[v.ID] = *v
	return nil
}

func (s *MemoryStore) GetVibe(ctx context.Context, id string) (*domain.Vibe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vibes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := v
	return &out, nil
}

func (s *MemoryStore) GetRecentVibes(ctx context.Context, limit int) ([]domain.Vibe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Vibe, 0, len(s.vibes))
	for _, v := range s.vibes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetAllVibes(ctx context.Context) ([]domain.Vibe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Vibe, 0, len(s.vibes))
	for _, v := range s.vibes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountVibes(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.vibes)), nil
}

// ---- Users ----

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	out.Interests = append([]string(nil), p.Interests...)
	out.AvoidTopics = append([]string(nil), p.AvoidTopics...)
	return &out, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, p *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.UpdatedAt = s.now().UTC()
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	cp.AvoidTopics = append([]string(nil), p.AvoidTopics...)
	s.users[p.ID] = cp
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ConsumeQuery performs the check-then-increment under the store mutex, the
// in-memory equivalent of the GORM backend's conditional UPDATE.
func (s *MemoryStore) ConsumeQuery(ctx context.Context, userID, month string, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return 0, false, ErrNotFound
	}
	if p.PeriodMonth != month {
		p.QueriesThisMonth = 0
		p.PeriodMonth = month
	}
	allowed := limit < 0 || p.QueriesThisMonth < limit
	if allowed {
		p.QueriesThisMonth++
	}
	p.UpdatedAt = s.now().UTC()
	s.users[userID] = p
	return p.QueriesThisMonth, allowed, nil
}

func (s *MemoryStore) ResetAllQuotas(ctx context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.users {
		p.QueriesThisMonth = 0
		p.PeriodMonth = month
		s.users[id] = p
	}
	return nil
}

// ---- Advice history ----

func (s *MemoryStore) SaveAdviceHistory(ctx context.Context, h *domain.AdviceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now().UTC()
	}
	h.UpdatedAt = s.now().UTC()
	s.history[h.ID] = *h
	return nil
}

func (s *MemoryStore) GetAdviceHistory(ctx context.Context, userID string, limit, offset int) ([]domain.AdviceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.userHistoryLocked(userID)
	// newest first, ID tie-break, matching the GORM ordering
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return []domain.AdviceHistory{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountAdviceHistory(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.userHistoryLocked(userID))), nil
}

func (s *MemoryStore) GetAdviceHistoryItem(ctx context.Context, id string) (*domain.AdviceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := h
	return &out, nil
}

func (s *MemoryStore) DeleteAdviceHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history[id]; !ok {
		return ErrNotFound
	}
	delete(s.history, id)
	return nil
}

func (s *MemoryStore) DeleteAllAdviceHistory(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.history {
		if h.UserID == userID {
			delete(s.history, id)
		}
	}
	return nil
}

func (s *MemoryStore) GetAdviceHistoryRange(ctx context.Context, userID string, from, to time.Time) ([]domain.AdviceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.userHistoryLocked(userID)
	out := make([]domain.AdviceHistory, 0, len(all))
	for _, h := range all {
		if !h.CreatedAt.Before(from) && h.CreatedAt.Before(to) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) userHistoryLocked(userID string) []domain.AdviceHistory {
	out := make([]domain.AdviceHistory, 0)
	for _, h := range s.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out
}

// ---- Favorites ----

func (s *MemoryStore) SaveFavorite(ctx context.Context, f *domain.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.favorites {
		if existing.UserID == f.UserID && existing.Type == f.Type && existing.ReferenceID == f.ReferenceID {
			return ErrDuplicate
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now().UTC()
	}
	f.UpdatedAt = s.now().UTC()
	s.favorites[f.ID] = *f
	return nil
}

func (s *MemoryStore) GetFavorites(ctx context.Context, userID string, typ domain.FavoriteType) ([]domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Favorite, 0)
	for _, f := range s.favorites {
		if f.UserID != userID {
			continue
		}
		if typ != "" && f.Type != typ {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetFavorite(ctx context.Context, id string) (*domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.favorites[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := f
	return &out, nil
}

func (s *MemoryStore) DeleteFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; !ok {
		return ErrNotFound
	}
	delete(s.favorites, id)
	return nil
}

func (s *MemoryStore) DeleteAllFavorites(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.favorites {
		if f.UserID == userID {
			delete(s.favorites, id)
		}
	}
	return nil
}

// ---- Monthly metrics ----

func (s *MemoryStore) SaveMonthlyMetric(ctx context.Context, m *domain.MonthlyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := m.UserID + "|" + m.Month
	if existing, ok := s.metrics[key]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	} else {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now().UTC()
		}
	}
	m.UpdatedAt = s.now().UTC()
	s.metrics[key] = *m
	return nil
}

func (s *MemoryStore) GetMonthlyMetric(ctx context.Context, userID, month string) (*domain.MonthlyMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[userID+"|"+month]
	if !ok {
		return nil, ErrNotFound
	}
	out := m
	return &out, nil
}

// compile-time conformance check
var _ Store = (*MemoryStore)(nil)
