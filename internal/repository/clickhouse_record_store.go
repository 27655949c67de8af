package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"HeatCycle/internal/domain/models"
	pkgch "HeatCycle/pkg/clickhouse"
	applogger "HeatCycle/pkg/logger"
)

// CHRecordStore implements RecordStore backed by ClickHouse. The table is a
// ReplacingMergeTree keyed by day, so re-running a day overwrites its record
// instead of duplicating it; reads take the newest version per day.
type CHRecordStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRecordStore(ch *pkgch.Client, table string) *CHRecordStore {
	return &CHRecordStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHRecordStore) SetLogger(l *applogger.Logger) { s.l = l }

const recordColumns = `day, avg_outdoor_temp_overnight, min_indoor_temp_setback, gas_overnight, gas_recovery,
        setback_start_time, recovery_start_time, recovery_end_time,
        setback_setpoint_detected, daytime_target_detected, optimum_setpoint`

func (s *CHRecordStore) Save(ctx context.Context, rec *models.DailyMetricsRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (%s, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table, recordColumns)
	_, err := s.db.ExecContext(ctx, q,
		rec.Day.UTC(),
		nullableFloat(rec.AvgOutdoorTempOvernight),
		nullableFloat(rec.MinIndoorTempSetback),
		nullableFloat(rec.GasOvernight),
		nullableFloat(rec.GasRecovery),
		nullableTime(rec.SetbackStart),
		nullableTime(rec.RecoveryStart),
		nullableTime(rec.RecoveryEnd),
		nullableFloat(rec.SetbackSetpoint),
		nullableFloat(rec.DaytimeTarget),
		nullableFloat(rec.OptimumSetpoint),
		time.Now().UTC(),
	)
	if err != nil {
		s.logError("clickhouse record save error", err)
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *CHRecordStore) Range(ctx context.Context, from, to time.Time) ([]models.DailyMetricsRecord, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE day >= ? AND day < ?
        ORDER BY day ASC
    `, recordColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		s.logError("clickhouse record range error", err)
		return nil, fmt.Errorf("record range: %w", err)
	}
	defer rows.Close()

	var out []models.DailyMetricsRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logError("clickhouse record scan error", err)
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse record rows error", err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHRecordStore) Latest(ctx context.Context) (*models.DailyMetricsRecord, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        ORDER BY day DESC
        LIMIT 1
    `, recordColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.logError("clickhouse record latest error", err)
		return nil, fmt.Errorf("record latest: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanRecord(rows)
	if err != nil {
		s.logError("clickhouse record scan error", err)
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &rec, rows.Err()
}

func (s *CHRecordStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHRecordStore) Close() error {
	return nil // Managed by pkg
}

func scanRecord(rows *sql.Rows) (models.DailyMetricsRecord, error) {
	var rec models.DailyMetricsRecord
	var day time.Time
	var avgOut, minIn, gasNight, gasRec, setbackSP, daytimeT, optimum sql.NullFloat64
	var setbackStart, recoveryStart, recoveryEnd sql.NullTime
	if err := rows.Scan(&day, &avgOut, &minIn, &gasNight, &gasRec,
		&setbackStart, &recoveryStart, &recoveryEnd,
		&setbackSP, &daytimeT, &optimum); err != nil {
		return models.DailyMetricsRecord{}, err
	}
	rec.Day = day.UTC()
	rec.AvgOutdoorTempOvernight = floatPtr(avgOut)
	rec.MinIndoorTempSetback = floatPtr(minIn)
	rec.GasOvernight = floatPtr(gasNight)
	rec.GasRecovery = floatPtr(gasRec)
	rec.SetbackStart = timePtr(setbackStart)
	rec.RecoveryStart = timePtr(recoveryStart)
	rec.RecoveryEnd = timePtr(recoveryEnd)
	rec.SetbackSetpoint = floatPtr(setbackSP)
	rec.DaytimeTarget = floatPtr(daytimeT)
	rec.OptimumSetpoint = floatPtr(optimum)
	return rec, nil
}

func (s *CHRecordStore) logError(msg string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, applogger.String("table", s.table), applogger.Error(err))
}

func nullableTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
