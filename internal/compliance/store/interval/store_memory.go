package interval

import (
	"context"
	"sort"
	"sync"
	"time"

	"staywatch/internal/compliance/models"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// InMemoryStore keeps interval records per subject. Safe for concurrent
// use; hands out clones so callers never alias internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.SubjectID]map[domain.IntervalID]*models.IntervalRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.SubjectID]map[domain.IntervalID]*models.IntervalRecord),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.IntervalRecord) error {
	if record == nil {
		return dErrors.New(dErrors.CodePrecondition, "interval record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	subject := s.records[record.SubjectID]
	if subject == nil {
		subject = make(map[domain.IntervalID]*models.IntervalRecord)
		s.records[record.SubjectID] = subject
	}
	if _, exists := subject[record.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "interval %s already exists", record.ID)
	}

	now := time.Now().UTC()
	stored := record.Clone()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	subject[record.ID] = stored
	*record = *stored.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID) (*models.IntervalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, ok := s.records[subjectID][intervalID]; ok {
		return record.Clone(), nil
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "interval %s not found for subject %s", intervalID, subjectID)
}

func (s *InMemoryStore) Update(_ context.Context, record *models.IntervalRecord) error {
	if record == nil {
		return dErrors.New(dErrors.CodePrecondition, "interval record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.SubjectID][record.ID]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "interval %s not found for subject %s", record.ID, record.SubjectID)
	}

	stored := record.Clone()
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	s.records[record.SubjectID][record.ID] = stored
	*record = *stored.Clone()
	return nil
}

func (s *InMemoryStore) SetExcluded(_ context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID, excluded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[subjectID][intervalID]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "interval %s not found for subject %s", intervalID, subjectID)
	}
	record.Excluded = excluded
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) DeleteAllForSubject(_ context.Context, subjectID domain.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subjectID)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*models.IntervalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject := s.records[subjectID]
	out := make([]*models.IntervalRecord, 0, len(subject))
	for _, record := range subject {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
