package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// Scan outcomes stored in scan_log.outcome.
const (
	OutcomeOK                = "ok"
	OutcomeNoTile            = "no_tile"
	OutcomeNoPath            = "no_path"
	OutcomeBacktrackOverflow = "backtrack_overflow"
	OutcomeError             = "error"
)

// ScanRecord is one row of scan_log.
type ScanRecord struct {
	ID         int64
	AgentID    uint32
	Start      model.Vec3
	Goal       model.Vec3
	Expansions int
	Nodes      int
	Probes     int
	Legs       int
	Duration   time.Duration
	Outcome    string
	Error      string
	RecordedAt time.Time
}

// NewScanRecord converts scan statistics of one agent into a row.
func NewScanRecord(agentID uint32, stats geo.ScanStats) ScanRecord {
	rec := ScanRecord{
		AgentID:    agentID,
		Start:      stats.Start,
		Goal:       stats.Goal,
		Expansions: stats.Expansions,
		Nodes:      stats.Nodes,
		Probes:     stats.Probes,
		Legs:       stats.Legs,
		Duration:   stats.Duration,
		Outcome:    ClassifyScanError(stats.Err),
		RecordedAt: time.Now(),
	}
	if stats.Err != nil {
		rec.Error = stats.Err.Error()
	}
	return rec
}

// ClassifyScanError maps a Scan error to its outcome label.
func ClassifyScanError(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, geo.ErrNoTileFound):
		return OutcomeNoTile
	case errors.Is(err, geo.ErrNoPathFound):
		return OutcomeNoPath
	case errors.Is(err, geo.ErrBacktrackOverflow):
		return OutcomeBacktrackOverflow
	default:
		return OutcomeError
	}
}

// ScanRepository stores scan telemetry.
type ScanRepository struct {
	pool *pgxpool.Pool
}

// NewScanRepository creates a new scan repository
func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

const insertScanSQL = `
	INSERT INTO scan_log
	(agent_id, start_x, start_y, start_z, goal_x, goal_y, goal_z,
	 expansions, nodes, probes, legs, duration_us, outcome, error, recorded_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

// InsertBatch writes records in a single transaction.
func (r *ScanRepository) InsertBatch(ctx context.Context, records []ScanRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertScanSQL,
			int64(rec.AgentID),
			rec.Start.X, rec.Start.Y, rec.Start.Z,
			rec.Goal.X, rec.Goal.Y, rec.Goal.Z,
			rec.Expansions, rec.Nodes, rec.Probes, rec.Legs,
			rec.Duration.Microseconds(),
			rec.Outcome, rec.Error, rec.RecordedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("insert scan batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close scan batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit scan batch: %w", err)
	}
	return nil
}

// Recent returns the latest records of an agent, newest first.
func (r *ScanRepository) Recent(ctx context.Context, agentID uint32, limit int) ([]ScanRecord, error) {
	query := `
		SELECT id, agent_id, start_x, start_y, start_z, goal_x, goal_y, goal_z,
		       expansions, nodes, probes, legs, duration_us, outcome, error, recorded_at
		FROM scan_log
		WHERE agent_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, int64(agentID), limit)
	if err != nil {
		return nil, fmt.Errorf("querying scans of agent %d: %w", agentID, err)
	}
	defer rows.Close()

	records := make([]ScanRecord, 0, limit)
	for rows.Next() {
		var (
			rec        ScanRecord
			agent      int64
			durationUS int64
		)
		if err := rows.Scan(&rec.ID, &agent,
			&rec.Start.X, &rec.Start.Y, &rec.Start.Z,
			&rec.Goal.X, &rec.Goal.Y, &rec.Goal.Z,
			&rec.Expansions, &rec.Nodes, &rec.Probes, &rec.Legs,
			&durationUS, &rec.Outcome, &rec.Error, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning scan_log row: %w", err)
		}
		rec.AgentID = uint32(agent)
		rec.Duration = time.Duration(durationUS) * time.Microsecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan_log rows: %w", err)
	}
	return records, nil
}

// CountByOutcome returns the number of stored scans per outcome.
func (r *ScanRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT outcome, COUNT(*) FROM scan_log GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, 4)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcome counts: %w", err)
	}
	return counts, nil
}
