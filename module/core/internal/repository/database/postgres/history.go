package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/internal/repository/database"
)

var _ database.GeofenceHistoryRepository = (*HistoryRepo)(nil)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append writes all entries in one transaction so a tick's transitions are
// recorded together or not at all.
func (r *HistoryRepo) Append(ctx context.Context, entries []domain.GeofenceHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO geofence_history (geofence_id, tracker_id, action, occurred_at) VALUES ($1, $2, $3, $4)`,
			e.GeofenceID, e.TrackerID, string(e.Action), e.Timestamp,
		); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return tx.Commit()
}

func (r *HistoryRepo) List(ctx context.Context, geofenceID string) ([]domain.GeofenceHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT geofence_id, tracker_id, action, occurred_at FROM geofence_history WHERE geofence_id = $1 ORDER BY occurred_at ASC, id ASC`,
		geofenceID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.GeofenceHistoryEntry
	for rows.Next() {
		var (
			e      domain.GeofenceHistoryEntry
			action string
		)
		if err := rows.Scan(&e.GeofenceID, &e.TrackerID, &action, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = domain.GeofenceAction(action)
		results = append(results, e)
	}
	return results, rows.Err()
}
