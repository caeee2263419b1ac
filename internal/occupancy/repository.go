package occupancy

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the occupancy oracle: it reads reservations and blocked days.
// It never writes.
type Repository interface {
	// FindBusyIntervals returns reservations with the given status whose
	// [start, end] overlaps within. An empty listingIDs slice means no restriction.
	FindBusyIntervals(ctx context.Context, listingIDs []string, status Status, within DateRange) ([]BusyInterval, error)

	// FindBlockedDays returns blocked days falling inside within.
	// An empty listingIDs slice means no restriction.
	FindBlockedDays(ctx context.Context, listingIDs []string, within DateRange) ([]BlockedDay, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) FindBusyIntervals(ctx context.Context, listingIDs []string, status Status, within DateRange) ([]BusyInterval, error) {
	// Closed-interval overlap: start_date <= range.end AND end_date >= range.start
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("id", "listing_id", "start_date", "end_date", "status").
		From("public.reservations").
		Where(squirrel.Eq{"status": status}).
		Where(squirrel.LtOrEq{"start_date": within.End}).
		Where(squirrel.GtOrEq{"end_date": within.Start})

	if len(listingIDs) > 0 {
		query = query.Where(squirrel.Eq{"listing_id": listingIDs})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find busy intervals query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find busy intervals failed: %w", err)
	}
	defer rows.Close()

	var intervals []BusyInterval
	for rows.Next() {
		var b BusyInterval
		if err := rows.Scan(&b.ReservationID, &b.ListingID, &b.Start, &b.End, &b.Status); err != nil {
			return nil, fmt.Errorf("scan busy interval failed: %w", err)
		}
		intervals = append(intervals, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate busy intervals failed: %w", err)
	}

	return intervals, nil
}

func (r *pgxRepository) FindBlockedDays(ctx context.Context, listingIDs []string, within DateRange) ([]BlockedDay, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("listing_id", "day").
		From("public.blocked_days").
		Where(squirrel.GtOrEq{"day": within.Start}).
		Where(squirrel.LtOrEq{"day": within.End})

	if len(listingIDs) > 0 {
		query = query.Where(squirrel.Eq{"listing_id": listingIDs})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find blocked days query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find blocked days failed: %w", err)
	}
	defer rows.Close()

	var days []BlockedDay
	for rows.Next() {
		var d BlockedDay
		if err := rows.Scan(&d.ListingID, &d.Date); err != nil {
			return nil, fmt.Errorf("scan blocked day failed: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked days failed: %w", err)
	}

	return days, nil
}
