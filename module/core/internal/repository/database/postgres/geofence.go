package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/internal/repository/database"
)

var _ database.GeofenceRepository = (*GeofenceRepo)(nil)

const uniqueViolation = "23505"

const geofenceColumns = `id, name, kind, center_lat, center_lon, radius_meters, active, severity, expires_at`

type GeofenceRepo struct {
	db *sql.DB
}

func NewGeofenceRepo(db *sql.DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) Insert(ctx context.Context, g *domain.Geofence) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofences (`+geofenceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.Name, string(g.Kind), g.Center.Lat, g.Center.Lon, g.RadiusMeters, g.Active, string(g.Severity), nullInt64(g.ExpiresAt),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrGeofenceExists
	}
	return err
}

func (r *GeofenceRepo) Update(ctx context.Context, g *domain.Geofence) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE geofences SET name = $2, kind = $3, center_lat = $4, center_lon = $5, radius_meters = $6, active = $7, severity = $8, expires_at = $9 WHERE id = $1`,
		g.ID, g.Name, string(g.Kind), g.Center.Lat, g.Center.Lon, g.RadiusMeters, g.Active, string(g.Severity), nullInt64(g.ExpiresAt),
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *GeofenceRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE geofences SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM geofences WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *GeofenceRepo) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+geofenceColumns+` FROM geofences WHERE id = $1`, id)

	g, err := scanGeofence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrGeofenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GeofenceRepo) List(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+geofenceColumns+` FROM geofences ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *g)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeofence(s scanner) (*domain.Geofence, error) {
	var (
		g         domain.Geofence
		kind      string
		severity  string
		expiresAt sql.NullInt64
	)
	if err := s.Scan(&g.ID, &g.Name, &kind, &g.Center.Lat, &g.Center.Lon, &g.RadiusMeters, &g.Active, &severity, &expiresAt); err != nil {
		return nil, err
	}
	g.Kind = domain.GeofenceKind(kind)
	g.Severity = domain.Severity(severity)
	if expiresAt.Valid {
		v := expiresAt.Int64
		g.ExpiresAt = &v
	}
	return &g, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrGeofenceNotFound
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
