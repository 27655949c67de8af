package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"HeatCycle/internal/domain/models"
	"HeatCycle/internal/domain/repository"
)

// ClickHouseSampleStorage implements SampleStorage for ClickHouse.
type ClickHouseSampleStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseSampleStorage creates ClickHouse sample storage.
func NewClickHouseSampleStorage(db *sql.DB, table string) repository.SampleStorage {
	return &ClickHouseSampleStorage{db: db, table: table}
}

func (s *ClickHouseSampleStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseSampleStorage) Store(ctx context.Context, sm *models.Sample) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, entity_id, state, target_temp, hvac_action) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		sm.Timestamp.UTC(),
		sm.EntityID,
		sm.State,
		nullableFloat(sm.TargetTemp),
		sm.HVACAction,
	)
	return err
}

func (s *ClickHouseSampleStorage) StoreBatch(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(samples); start += chunkSize {
		end := start + chunkSize
		if end > len(samples) {
			end = len(samples)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, sm := range samples[start:end] {
			if sm == nil || sm.EntityID == "" || sm.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				sm.Timestamp.UTC(),
				sm.EntityID,
				sm.State,
				nullableFloat(sm.TargetTemp),
				sm.HVACAction,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, entity_id, state, target_temp, hvac_action) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSampleStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSampleStorage) Close() error {
	return nil // Managed by pkg
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
