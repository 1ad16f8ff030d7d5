package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertReadingSampleSQL = `INSERT INTO reading_samples (
        sample_ts,
        probe_id,
        probe_name,
        value,
        status,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	listSamplesBetweenSQL = `SELECT
        sample_ts,
        probe_id,
        probe_name,
        value,
        status,
        error,
        created_at
    FROM reading_samples
    WHERE probe_id = $1
      AND sample_ts >= $2
      AND sample_ts < $3
    ORDER BY sample_ts;`

	listRecentSamplesSQL = `SELECT
        sample_ts,
        probe_id,
        probe_name,
        value,
        status,
        error,
        created_at
    FROM reading_samples
    ORDER BY sample_ts DESC
    LIMIT $1;`

	countSamplesSQL = `SELECT COUNT(*) FROM reading_samples;`

	insertAlertEventSQL = `INSERT INTO alert_events (
        event_ts,
        alert_key,
        transition,
        value,
        threshold
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    RETURNING id, event_ts, alert_key, transition, value, threshold, created_at;`

	listRecentEventsSQL = `SELECT
        id,
        event_ts,
        alert_key,
        transition,
        value,
        threshold,
        created_at
    FROM alert_events
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteEventsBeforeSQL = `DELETE FROM alert_events WHERE created_at < $1;`
)

// SampleStore defines operations for reading history persistence.
type SampleStore interface {
	InsertReadingSample(ctx context.Context, sample ReadingSample) error
	ListSamplesBetween(ctx context.Context, probeID string, from, to time.Time) ([]ReadingSample, error)
	ListRecentSamples(ctx context.Context, limit int) ([]ReadingSample, error)
	CountSamples(ctx context.Context) (int64, error)
}

// EventStore defines operations for alert transition auditing.
type EventStore interface {
	InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error)
	ListRecentEvents(ctx context.Context, limit int) ([]AlertEvent, error)
	DeleteEventsBefore(ctx context.Context, olderThan time.Time) error
}

// Store aggregates access to reading samples and alert events.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertReadingSample persists one probe observation.
func (s *Store) InsertReadingSample(ctx context.Context, sample ReadingSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var value interface{}
	if sample.Status == "ok" {
		value = sample.Value.String()
	}

	var errMsg interface{}
	if sample.Error != nil {
		errMsg = *sample.Error
	}

	_, execErr := pool.Exec(ctx, insertReadingSampleSQL,
		sample.Time,
		sample.ProbeID,
		sample.Name,
		value,
		sample.Status,
		errMsg,
	)
	if execErr != nil {
		return fmt.Errorf("insert reading sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one probe's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, probeID string, from, to time.Time) ([]ReadingSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, probeID, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]ReadingSample, 0)
	for rows.Next() {
		sample, scanErr := scanReadingSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// ListRecentSamples lists the most recent samples ordered by descending time.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]ReadingSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]ReadingSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanReadingSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// InsertAlertEvent persists a raised/cleared transition.
func (s *Store) InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEvent{}, err
	}

	row := pool.QueryRow(ctx, insertAlertEventSQL,
		event.Time,
		event.AlertKey,
		event.Transition,
		event.Value.String(),
		event.Limit.String(),
	)

	rec, scanErr := scanAlertEventRow(row)
	if scanErr != nil {
		return AlertEvent{}, fmt.Errorf("insert alert event: %w", scanErr)
	}
	return rec, nil
}

// ListRecentEvents lists the most recent alert transitions.
func (s *Store) ListRecentEvents(ctx context.Context, limit int) ([]AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentEventsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]AlertEvent, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAlertEventRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// DeleteEventsBefore deletes historical alert events.
func (s *Store) DeleteEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete events before: %w", execErr)
	}
	return nil
}

func scanReadingSample(rows pgx.Rows) (ReadingSample, error) {
	var (
		sampleTS  time.Time
		probeID   string
		probeName string
		valueStr  sql.NullString
		status    string
		errMsg    sql.NullString
		createdAt time.Time
	)

	if err := rows.Scan(
		&sampleTS,
		&probeID,
		&probeName,
		&valueStr,
		&status,
		&errMsg,
		&createdAt,
	); err != nil {
		return ReadingSample{}, err
	}

	sample := ReadingSample{
		Time:      sampleTS,
		ProbeID:   probeID,
		Name:      probeName,
		Status:    status,
		CreatedAt: createdAt,
	}

	if valueStr.Valid {
		value, err := decimal.NewFromString(valueStr.String)
		if err != nil {
			return ReadingSample{}, fmt.Errorf("parse sample value: %w", err)
		}
		sample.Value = value
	}
	if errMsg.Valid {
		msg := errMsg.String
		sample.Error = &msg
	}

	return sample, nil
}

func scanAlertEventRow(row pgx.Row) (AlertEvent, error) {
	var (
		rec          AlertEvent
		valueStr     string
		thresholdStr string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Time,
		&rec.AlertKey,
		&rec.Transition,
		&valueStr,
		&thresholdStr,
		&rec.CreatedAt,
	); err != nil {
		return AlertEvent{}, err
	}

	var convErr error
	rec.Value, convErr = decimal.NewFromString(valueStr)
	if convErr != nil {
		return AlertEvent{}, fmt.Errorf("parse event value: %w", convErr)
	}
	rec.Limit, convErr = decimal.NewFromString(thresholdStr)
	if convErr != nil {
		return AlertEvent{}, fmt.Errorf("parse event threshold: %w", convErr)
	}

	return rec, nil
}
