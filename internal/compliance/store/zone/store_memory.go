package zone

import (
	"context"
	"sort"
	"sync"
	"time"

	"staywatch/internal/compliance/models"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// InMemoryStore keeps zone rules in memory. Safe for concurrent use.
type InMemoryStore struct {
	mu    sync.RWMutex
	rules map[domain.Zone]models.ZoneRule
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rules: make(map[domain.Zone]models.ZoneRule)}
}

func (s *InMemoryStore) Upsert(_ context.Context, rule models.ZoneRule) error {
	if rule.Zone.IsNil() {
		return dErrors.New(dErrors.CodePrecondition, "zone is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.UpdatedAt = time.Now().UTC()
	s.rules[rule.Zone] = rule
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, zone domain.Zone) (*models.ZoneRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rule, ok := s.rules[zone]; ok {
		return &rule, nil
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "no rule for zone %s", zone)
}

func (s *InMemoryStore) List(_ context.Context) ([]models.ZoneRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ZoneRule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, zone domain.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[zone]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "no rule for zone %s", zone)
	}
	delete(s.rules, zone)
	return nil
}
