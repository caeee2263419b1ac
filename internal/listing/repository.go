package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines read access to the listing catalogue.
type Repository interface {
	// Find returns the listings matching q, ordered newest first with the id
	// as tie breaker so identical input yields identical order.
	Find(ctx context.Context, q Query) ([]*Candidate, error)
	GetByID(ctx context.Context, domain Domain, id string) (*Candidate, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// Nullable text and count columns are coalesced so they scan into plain values.
// Prices, coordinates and the seasons array keep their NULLs.
var propertyColumns = []string{
	"id", "title", "COALESCE(description, '')", "COALESCE(location, '')", "COALESCE(zone, '')",
	"COALESCE(property_type, '')", "weekday_price", "weekend_price", "monthly_price",
	"COALESCE(bedrooms, 0)", "COALESCE(bathrooms, 0)", "COALESCE(amenities, '{}')", "seasons",
	"latitude", "longitude", "created_at",
}

var experienceColumns = []string{
	"id", "name", "COALESCE(description, '')", "COALESCE(location, '')", "COALESCE(zone, '')",
	"COALESCE(experience_type, '')", "price", "COALESCE(amenities, '{}')",
	"latitude", "longitude", "created_at",
}

// selectFor builds the base SELECT for a domain.
func selectFor(domain Domain) (squirrel.SelectBuilder, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	switch domain {
	case DomainProperties:
		return psql.Select(propertyColumns...).From("public.properties"), nil
	case DomainExperiences:
		return psql.Select(experienceColumns...).From("public.experiences"), nil
	default:
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown listing domain %q", domain)
	}
}

func scanCandidate(row pgx.Row, domain Domain) (*Candidate, error) {
	c := Candidate{Domain: domain}
	var err error

	switch domain {
	case DomainProperties:
		err = row.Scan(
			&c.ID, &c.Title, &c.Description, &c.Location, &c.Zone, &c.Type,
			&c.WeekdayPrice, &c.WeekendPrice, &c.MonthlyPrice, &c.Bedrooms, &c.Bathrooms,
			&c.Amenities, &c.Seasons, &c.Latitude, &c.Longitude, &c.CreatedAt,
		)
	default:
		err = row.Scan(
			&c.ID, &c.Title, &c.Description, &c.Location, &c.Zone, &c.Type,
			&c.Price, &c.Amenities, &c.Latitude, &c.Longitude, &c.CreatedAt,
		)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgxRepository) Find(ctx context.Context, q Query) ([]*Candidate, error) {
	query, err := selectFor(q.Domain)
	if err != nil {
		return nil, err
	}

	if len(q.Predicates) > 0 {
		query = query.Where(squirrel.And(q.Predicates))
	}

	query = query.OrderBy("created_at DESC", "id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find %s query failed: %w", q.Domain, err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s failed: %w", q.Domain, err)
	}
	defer rows.Close()

	var candidates []*Candidate
	for rows.Next() {
		c, err := scanCandidate(rows, q.Domain)
		if err != nil {
			return nil, fmt.Errorf("scan %s failed: %w", q.Domain, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s failed: %w", q.Domain, err)
	}

	return candidates, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, domain Domain, id string) (*Candidate, error) {
	query, err := selectFor(domain)
	if err != nil {
		return nil, err
	}

	sql, args, err := query.Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get %s query failed: %w", domain, err)
	}

	c, err := scanCandidate(r.pool.QueryRow(ctx, sql, args...), domain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s failed: %w", domain, err)
	}
	return c, nil
}
