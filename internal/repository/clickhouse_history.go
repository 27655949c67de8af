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

// CHHistory implements History backed by the raw states table in
// ClickHouse. Range queries prepend the last known state before the period
// start so integrators and detectors see the value in effect at the start.
type CHHistory struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHHistory(ch *pkgch.Client, table string) *CHHistory {
	return &CHHistory{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (h *CHHistory) SetLogger(l *applogger.Logger) { h.l = l }

func (h *CHHistory) RangeQuery(ctx context.Context, entityID string, start, end time.Time) (models.TimeSeries, error) {
	began := time.Now()

	carried, err := h.PointQuery(ctx, entityID, start.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	const qtpl = `
        SELECT ts, entity_id, state, target_temp, hvac_action
        FROM %s
        WHERE entity_id = ? AND ts >= ? AND ts < ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, h.table)
	rows, err := h.db.QueryContext(ctx, q, entityID, start.UTC(), end.UTC())
	if err != nil {
		h.logError("clickhouse range query error", entityID, err)
		return nil, fmt.Errorf("range query: %w", err)
	}
	defer rows.Close()

	out := make(models.TimeSeries, 0, 256)
	if carried != nil {
		out = append(out, *carried)
	}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			h.logError("clickhouse range scan error", entityID, err)
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		h.logError("clickhouse range rows error", entityID, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if h.l != nil {
		h.l.Debug("clickhouse range query ok",
			applogger.String("entity_id", entityID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(began)),
		)
	}
	return out, nil
}

func (h *CHHistory) PointQuery(ctx context.Context, entityID string, at time.Time) (*models.Sample, error) {
	const qtpl = `
        SELECT ts, entity_id, state, target_temp, hvac_action
        FROM %s
        WHERE entity_id = ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT 1
    `
	q := fmt.Sprintf(qtpl, h.table)
	rows, err := h.db.QueryContext(ctx, q, entityID, at.UTC())
	if err != nil {
		h.logError("clickhouse point query error", entityID, err)
		return nil, fmt.Errorf("point query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	s, err := scanSample(rows)
	if err != nil {
		h.logError("clickhouse point scan error", entityID, err)
		return nil, fmt.Errorf("scan sample: %w", err)
	}
	return &s, rows.Err()
}

func scanSample(rows *sql.Rows) (models.Sample, error) {
	var s models.Sample
	var ts time.Time
	var target sql.NullFloat64
	var action sql.NullString
	if err := rows.Scan(&ts, &s.EntityID, &s.State, &target, &action); err != nil {
		return models.Sample{}, err
	}
	s.Timestamp = ts.UTC()
	if target.Valid {
		v := target.Float64
		s.TargetTemp = &v
	}
	s.HVACAction = action.String
	return s, nil
}

func (h *CHHistory) logError(msg, entityID string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error(msg,
		applogger.String("table", h.table),
		applogger.String("entity_id", entityID),
		applogger.Error(err),
	)
}
