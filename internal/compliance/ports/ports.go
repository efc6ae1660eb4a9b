// Package ports defines the interfaces the compliance service depends on,
// so stores, caches, and audit sinks stay swappable between memory,
// postgres, redis, and kafka implementations.
package ports

import (
	"context"
	"log/slog"
	"time"

	"staywatch/internal/audit"
	"staywatch/internal/compliance/models"
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	"staywatch/pkg/platform/middleware/auth"
)

// IntervalStore persists presence intervals per subject.
type IntervalStore interface {
	Create(ctx context.Context, record *models.IntervalRecord) error
	Get(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID) (*models.IntervalRecord, error)
	Update(ctx context.Context, record *models.IntervalRecord) error
	SetExcluded(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID, excluded bool) error
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.IntervalRecord, error)
	// DeleteAllForSubject hard-deletes every record of a subject. Unlike
	// exclusion this is erasure; nothing survives for audit.
	DeleteAllForSubject(ctx context.Context, subjectID domain.SubjectID) error
}

// ZoneRuleStore persists zone inclusion rules. Zones without a rule count
// toward presence.
type ZoneRuleStore interface {
	Upsert(ctx context.Context, rule models.ZoneRule) error
	Get(ctx context.Context, zone domain.Zone) (*models.ZoneRule, error)
	List(ctx context.Context) ([]models.ZoneRule, error)
	Delete(ctx context.Context, zone domain.Zone) error
}

// DaySetCache memoizes merged day sets. The key already encodes a hash of
// the interval collection, so entries self-invalidate when intervals
// change; the TTL only bounds storage.
type DaySetCache interface {
	Get(ctx context.Context, subjectID domain.SubjectID, key string) (engine.DaySet, bool, error)
	Set(ctx context.Context, subjectID domain.SubjectID, key string, set engine.DaySet, ttl time.Duration) error
}

// AuditPublisher records compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit emits an audit event when a publisher is wired and always logs
// it. Audit failures are logged, never propagated: the business operation
// already succeeded.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, action string, subjectID domain.SubjectID, details map[string]string) {
	if logger != nil {
		args := []any{"action", action, "subject_id", subjectID.String()}
		for k, v := range details {
			args = append(args, k, v)
		}
		logger.Info("audit", args...)
	}
	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, audit.Event{
		Action:    action,
		SubjectID: subjectID,
		Actor:     auth.Actor(ctx),
		Details:   details,
	}); err != nil && logger != nil {
		logger.Error("audit emit failed", "action", action, "error", err)
	}
}
