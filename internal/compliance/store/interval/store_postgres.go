package interval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staywatch/internal/compliance/models"
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// PostgresStore persists interval records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the intervals table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS presence_intervals (
			id UUID PRIMARY KEY,
			subject_id TEXT NOT NULL,
			zone TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE,
			excluded BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS presence_intervals_subject_idx
			ON presence_intervals (subject_id, start_date);
	`)
	if err != nil {
		return fmt.Errorf("ensure presence_intervals schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, record *models.IntervalRecord) error {
	if record == nil {
		return dErrors.New(dErrors.CodePrecondition, "interval record is required")
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presence_intervals (id, subject_id, zone, start_date, end_date, excluded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID.String(), record.SubjectID.String(), record.Zone.String(),
		record.StartDate.Time(), endDateArg(record.EndDate), record.Excluded,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert interval")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID) (*models.IntervalRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, zone, start_date, end_date, excluded, created_at, updated_at
		FROM presence_intervals
		WHERE subject_id = $1 AND id = $2`,
		subjectID.String(), intervalID.String(),
	)
	record, err := scanInterval(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "interval %s not found for subject %s", intervalID, subjectID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get interval")
	}
	return record, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *models.IntervalRecord) error {
	if record == nil {
		return dErrors.New(dErrors.CodePrecondition, "interval record is required")
	}
	record.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE presence_intervals
		SET zone = $3, start_date = $4, end_date = $5, excluded = $6, updated_at = $7
		WHERE subject_id = $1 AND id = $2`,
		record.SubjectID.String(), record.ID.String(), record.Zone.String(),
		record.StartDate.Time(), endDateArg(record.EndDate), record.Excluded,
		record.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update interval")
	}
	return requireOneRow(res, record.SubjectID, record.ID)
}

func (s *PostgresStore) SetExcluded(ctx context.Context, subjectID domain.SubjectID, intervalID domain.IntervalID, excluded bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE presence_intervals
		SET excluded = $3, updated_at = $4
		WHERE subject_id = $1 AND id = $2`,
		subjectID.String(), intervalID.String(), excluded, time.Now().UTC(),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set interval exclusion")
	}
	return requireOneRow(res, subjectID, intervalID)
}

func (s *PostgresStore) DeleteAllForSubject(ctx context.Context, subjectID domain.SubjectID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM presence_intervals WHERE subject_id = $1`, subjectID.String())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete subject intervals")
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.IntervalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, zone, start_date, end_date, excluded, created_at, updated_at
		FROM presence_intervals
		WHERE subject_id = $1
		ORDER BY start_date, id`,
		subjectID.String(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list intervals")
	}
	defer rows.Close()

	var out []*models.IntervalRecord
	for rows.Next() {
		record, err := scanInterval(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan interval")
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate intervals")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterval(row rowScanner) (*models.IntervalRecord, error) {
	var (
		idRaw      string
		subjectRaw string
		zoneRaw    string
		start      time.Time
		end        sql.NullTime
		record     models.IntervalRecord
	)
	if err := row.Scan(&idRaw, &subjectRaw, &zoneRaw, &start, &end, &record.Excluded, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	id, err := domain.ParseIntervalID(idRaw)
	if err != nil {
		return nil, err
	}
	record.ID = id
	record.SubjectID = domain.SubjectID(subjectRaw)
	record.Zone = domain.Zone(zoneRaw)
	record.StartDate = engine.DateOf(start.UTC())
	if end.Valid {
		d := engine.DateOf(end.Time.UTC())
		record.EndDate = &d
	}
	return &record, nil
}

func endDateArg(end *engine.Date) any {
	if end == nil {
		return nil
	}
	return end.Time()
}

func requireOneRow(res sql.Result, subjectID domain.SubjectID, intervalID domain.IntervalID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "rows affected")
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "interval %s not found for subject %s", intervalID, subjectID)
	}
	return nil
}
