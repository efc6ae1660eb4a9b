package zone

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"staywatch/internal/compliance/models"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// PostgresStore persists zone rules in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the zone rules table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS zone_rules (
			zone TEXT PRIMARY KEY,
			counted BOOLEAN NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure zone_rules schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rule models.ZoneRule) error {
	if rule.Zone.IsNil() {
		return dErrors.New(dErrors.CodePrecondition, "zone is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zone_rules (zone, counted, note, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (zone) DO UPDATE SET counted = $2, note = $3, updated_at = $4`,
		rule.Zone.String(), rule.Counted, rule.Note, time.Now().UTC(),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "upsert zone rule")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, zone domain.Zone) (*models.ZoneRule, error) {
	var rule models.ZoneRule
	var zoneRaw string
	err := s.db.QueryRowContext(ctx, `
		SELECT zone, counted, note, updated_at FROM zone_rules WHERE zone = $1`,
		zone.String(),
	).Scan(&zoneRaw, &rule.Counted, &rule.Note, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no rule for zone %s", zone)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get zone rule")
	}
	rule.Zone = domain.Zone(zoneRaw)
	return &rule, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.ZoneRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT zone, counted, note, updated_at FROM zone_rules ORDER BY zone`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list zone rules")
	}
	defer rows.Close()

	var out []models.ZoneRule
	for rows.Next() {
		var rule models.ZoneRule
		var zoneRaw string
		if err := rows.Scan(&zoneRaw, &rule.Counted, &rule.Note, &rule.UpdatedAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan zone rule")
		}
		rule.Zone = domain.Zone(zoneRaw)
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate zone rules")
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, zone domain.Zone) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM zone_rules WHERE zone = $1`, zone.String())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete zone rule")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "rows affected")
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "no rule for zone %s", zone)
	}
	return nil
}
