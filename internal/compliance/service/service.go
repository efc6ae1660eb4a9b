// Package service orchestrates the compliance engine over the interval and
// zone-rule stores: CRUD with validation, memoized day-set construction,
// status evaluation, forecasting, and the dashboard overview.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"staywatch/internal/audit"
	"staywatch/internal/compliance/metrics"
	"staywatch/internal/compliance/models"
	"staywatch/internal/compliance/ports"
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// overviewConcurrency bounds the per-request fan-out across subjects.
const overviewConcurrency = 8

type Service struct {
	intervals ports.IntervalStore
	zones     ports.ZoneRuleStore
	cache     ports.DaySetCache
	publisher ports.AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	policy      engine.Policy
	horizonDays int
	cacheTTL    time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithDaySetCache(cache ports.DaySetCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithForecastHorizon(days int) Option {
	return func(s *Service) {
		s.horizonDays = days
	}
}

// WithClock overrides the "today" source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(intervals ports.IntervalStore, zones ports.ZoneRuleStore, policy engine.Policy, opts ...Option) (*Service, error) {
	if intervals == nil {
		return nil, fmt.Errorf("interval store is required")
	}
	if zones == nil {
		return nil, fmt.Errorf("zone rule store is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	svc := &Service{
		intervals:   intervals,
		zones:       zones,
		policy:      policy,
		horizonDays: 2 * policy.WindowDays,
		now:         time.Now,
		tracer:      otel.Tracer("staywatch/compliance"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.horizonDays <= 0 {
		return nil, dErrors.Newf(dErrors.CodePrecondition, "forecast horizon must be positive, got %d", svc.horizonDays)
	}
	return svc, nil
}

// Policy returns the policy the service evaluates against.
func (s *Service) Policy() engine.Policy {
	return s.policy
}

func (s *Service) today() engine.Date {
	return engine.DateOf(s.now())
}

// AddInterval validates and stores a new presence interval.
func (s *Service) AddInterval(ctx context.Context, subjectID domain.SubjectID, raw engine.RawInterval) (*models.IntervalRecord, error) {
	if subjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	normalized, err := engine.NormalizeInterval(raw)
	if err != nil {
		return nil, err
	}

	record := recordFrom(subjectID, domain.NewIntervalID(), normalized)
	if err := s.intervals.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncMutation("create")
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionIntervalCreated, subjectID, map[string]string{
		"interval_id": record.ID.String(),
		"zone":        record.Zone.String(),
		"start_date":  record.StartDate.String(),
	})
	return record, nil
}

// UpdateInterval replaces an interval's zone, dates, and exclusion flag.
func (s *Service) UpdateInterval(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID, raw engine.RawInterval) (*models.IntervalRecord, error) {
	normalized, err := engine.NormalizeInterval(raw)
	if err != nil {
		return nil, err
	}
	existing, err := s.intervals.Get(ctx, subjectID, intervalID)
	if err != nil {
		return nil, err
	}

	record := recordFrom(subjectID, existing.ID, normalized)
	record.CreatedAt = existing.CreatedAt
	if err := s.intervals.Update(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncMutation("update")
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionIntervalUpdated, subjectID, map[string]string{
		"interval_id": record.ID.String(),
	})
	return record, nil
}

// ExcludeInterval soft-deletes an interval: it stops counting toward
// presence but stays on record for audit.
func (s *Service) ExcludeInterval(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID) error {
	if err := s.intervals.SetExcluded(ctx, subjectID, intervalID, true); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncMutation("exclude")
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionIntervalExcluded, subjectID, map[string]string{
		"interval_id": intervalID.String(),
	})
	return nil
}

// ListIntervals returns all of a subject's intervals, excluded included.
func (s *Service) ListIntervals(ctx context.Context, subjectID domain.SubjectID) ([]*models.IntervalRecord, error) {
	return s.intervals.ListBySubject(ctx, subjectID)
}

// PurgeSubject erases a subject's entire interval history. This is the
// data-erasure path; day-to-day removal goes through ExcludeInterval.
func (s *Service) PurgeSubject(ctx context.Context, subjectID domain.SubjectID) error {
	if subjectID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "subject_id is required")
	}
	if err := s.intervals.DeleteAllForSubject(ctx, subjectID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncMutation("purge")
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionSubjectPurged, subjectID, nil)
	return nil
}

// Status evaluates the subject's compliance at the reference date (today
// when ref is nil).
func (s *Service) Status(ctx context.Context, subjectID domain.SubjectID, ref *engine.Date) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.Status",
		trace.WithAttributes(attribute.String("subject_id", subjectID.String())))
	defer span.End()

	start := time.Now()
	refDate := s.today()
	if ref != nil {
		refDate = *ref
	}

	set, err := s.loadDaySet(ctx, subjectID, refDate)
	if err != nil {
		return nil, err
	}
	result, err := engine.Evaluate(set, refDate, s.policy)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveEvaluation(result.Risk.String(), time.Since(start).Seconds())
	}
	if result.DaysRemaining < 0 {
		ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionViolationDetected, subjectID, map[string]string{
			"reference_date": refDate.String(),
			"days_used":      strconv.Itoa(result.DaysUsed),
			"days_over":      strconv.Itoa(-result.DaysRemaining),
		})
	}
	return &models.StatusResponse{SubjectID: subjectID, WindowResult: result}, nil
}

// Forecast finds the earliest safe entry date for a stay of stayDays,
// searching forward from `from` (tomorrow when nil). Open-ended intervals
// are assumed to continue until the search start.
func (s *Service) Forecast(ctx context.Context, subjectID domain.SubjectID, stayDays int, from *engine.Date) (*models.ForecastResponse, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.Forecast",
		trace.WithAttributes(
			attribute.String("subject_id", subjectID.String()),
			attribute.Int("stay_days", stayDays),
		))
	defer span.End()

	searchStart := s.today().AddDays(1)
	if from != nil {
		searchStart = *from
	}

	set, err := s.loadDaySet(ctx, subjectID, searchStart)
	if err != nil {
		return nil, err
	}
	result, err := engine.FindEarliestSafeEntry(set, stayDays, searchStart, s.policy, s.horizonDays)
	if err != nil {
		return nil, err
	}

	if result.Found {
		if s.metrics != nil {
			s.metrics.IncForecast("found")
		}
	} else {
		if s.metrics != nil {
			s.metrics.IncForecast("horizon_exceeded")
		}
		ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionForecastHorizonExceeded, subjectID, map[string]string{
			"stay_days":        strconv.Itoa(stayDays),
			"search_start":     searchStart.String(),
			"searched_through": result.SearchedThrough.String(),
		})
	}
	return &models.ForecastResponse{SubjectID: subjectID, StayDays: stayDays, ForecastResult: result}, nil
}

// Overview evaluates many subjects in parallel for the dashboard. Results
// keep request order. One failing subject fails the whole batch; partial
// dashboards hide violations.
func (s *Service) Overview(ctx context.Context, subjectIDs []domain.SubjectID, ref *engine.Date) (*models.OverviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.Overview",
		trace.WithAttributes(attribute.Int("subjects", len(subjectIDs))))
	defer span.End()

	refDate := s.today()
	if ref != nil {
		refDate = *ref
	}

	statuses := make([]models.SubjectStatus, len(subjectIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, id := range subjectIDs {
		g.Go(func() error {
			res, err := s.Status(gctx, id, &refDate)
			if err != nil {
				return fmt.Errorf("subject %s: %w", id, err)
			}
			statuses[i] = models.SubjectStatus{SubjectID: id, Result: res.WindowResult}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.OverviewResponse{ReferenceDate: refDate, Subjects: statuses}, nil
}

// UpsertZoneRule records whether a zone counts toward presence.
func (s *Service) UpsertZoneRule(ctx context.Context, rule models.ZoneRule) error {
	if err := s.zones.Upsert(ctx, rule); err != nil {
		return err
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionZoneRuleChanged, "", map[string]string{
		"zone":    rule.Zone.String(),
		"counted": strconv.FormatBool(rule.Counted),
	})
	return nil
}

func (s *Service) ZoneRule(ctx context.Context, zone domain.Zone) (*models.ZoneRule, error) {
	return s.zones.Get(ctx, zone)
}

func (s *Service) ZoneRules(ctx context.Context) ([]models.ZoneRule, error) {
	return s.zones.List(ctx)
}

func (s *Service) DeleteZoneRule(ctx context.Context, zone domain.Zone) error {
	if err := s.zones.Delete(ctx, zone); err != nil {
		return err
	}
	ports.LogAudit(ctx, s.logger, s.publisher, audit.ActionZoneRuleChanged, "", map[string]string{
		"zone":    zone.String(),
		"deleted": "true",
	})
	return nil
}

// loadDaySet builds the subject's presence day set as of ref, going
// through the memo cache when one is wired.
func (s *Service) loadDaySet(ctx context.Context, subjectID domain.SubjectID, ref engine.Date) (engine.DaySet, error) {
	records, err := s.intervals.ListBySubject(ctx, subjectID)
	if err != nil {
		return engine.DaySet{}, err
	}
	rules, err := s.zones.List(ctx)
	if err != nil {
		return engine.DaySet{}, err
	}

	var key string
	if s.cache != nil {
		key = collectionKey(records, rules, ref)
		cached, hit, err := s.cache.Get(ctx, subjectID, key)
		if err != nil && s.logger != nil {
			s.logger.Warn("day set cache get failed", "subject_id", subjectID, "error", err)
		}
		if hit {
			if s.metrics != nil {
				s.metrics.IncCache("hit")
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.IncCache("miss")
		}
	}

	counted := make(map[domain.Zone]bool, len(rules))
	for _, rule := range rules {
		counted[rule.Zone] = rule.Counted
	}
	predicate := func(z domain.Zone) bool {
		if c, ok := counted[z]; ok {
			return c
		}
		return true
	}

	set := engine.BuildDaySet(intervalsOf(records), predicate, ref)

	if s.cache != nil {
		if err := s.cache.Set(ctx, subjectID, key, set, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("day set cache set failed", "subject_id", subjectID, "error", err)
		}
	}
	return set, nil
}

func intervalsOf(records []*models.IntervalRecord) []engine.Interval {
	out := make([]engine.Interval, 0, len(records))
	for _, r := range records {
		iv := engine.Interval{
			Zone:     r.Zone,
			Start:    r.StartDate,
			Open:     r.EndDate == nil,
			Excluded: r.Excluded,
		}
		if r.EndDate != nil {
			iv.End = *r.EndDate
		}
		out = append(out, iv)
	}
	return out
}

func recordFrom(subjectID domain.SubjectID, id domain.IntervalID, iv engine.Interval) *models.IntervalRecord {
	record := &models.IntervalRecord{
		ID:        id,
		SubjectID: subjectID,
		Zone:      iv.Zone,
		StartDate: iv.Start,
		Excluded:  iv.Excluded,
	}
	if !iv.Open {
		end := iv.End
		record.EndDate = &end
	}
	return record
}
