package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/stay-search-backend/internal/db"
	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/apperror"
)

type Options struct {
	// Rows read from the listing repository per round trip. Search keeps
	// reading until the catalogue is exhausted; zero reads everything at once.
	BatchSize        int
	OccupancyTimeout time.Duration
	DayPriceMax      float64
	MonthPriceMax    float64
}

type Service interface {
	// Search runs the whole pipeline for one filter set. It is read-only and
	// returns identical results for identical input and backend state.
	Search(ctx context.Context, f FilterSet, domain listing.Domain) (*ResultSet, error)
	// CheckAvailability reports whether a single listing is free for dates.
	CheckAvailability(ctx context.Context, domain listing.Domain, listingID string, dates occupancy.DateRange) (bool, error)
}

type service struct {
	listings  listing.Repository
	batchSize uint64
	compiler  Compiler
	resolver  *Resolver
	logger    *logrus.Logger
}

func NewService(listings listing.Repository, oracle occupancy.Repository, opts Options, logger *logrus.Logger) Service {
	var batch uint64
	if opts.BatchSize > 0 {
		batch = uint64(opts.BatchSize)
	}
	return &service{
		listings:  listings,
		batchSize: batch,
		compiler: Compiler{
			DayPriceMax:   opts.DayPriceMax,
			MonthPriceMax: opts.MonthPriceMax,
		},
		resolver: NewResolver(oracle, opts.OccupancyTimeout),
		logger:   logger,
	}
}

func (s *service) Search(ctx context.Context, f FilterSet, domain listing.Domain) (*ResultSet, error) {
	// 1. Validate before touching the backend
	if !domain.Valid() {
		return nil, ErrInvalidDomain
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	dates, err := f.DateRange()
	if err != nil {
		return nil, err
	}

	// 2. Retrieve candidates
	candidates, err := s.findAll(ctx, s.compiler.Compile(f, domain))
	if err != nil {
		return nil, unavailable(&RepositoryError{Err: err, Timeout: db.IsTimeout(err)})
	}

	// 3. Occupancy, failing open
	res, err := s.resolver.Resolve(ctx, candidateIDs(candidates), dates)
	failed := false
	if err != nil {
		failed = true
		entry := s.logger.WithError(err).WithFields(logrus.Fields{
			"domain":     domain,
			"dates":      dates.String(),
			"candidates": len(candidates),
		})
		var lookupErr *OccupancyLookupError
		if errors.As(err, &lookupErr) {
			entry = entry.WithFields(logrus.Fields{"source": lookupErr.Source, "timeout": lookupErr.Timeout})
		}
		entry.Warn("availability check failed, returning listings without date filtering")
		res = Resolution{}
	}

	// 4. Assemble
	rs := Assemble(candidates, res, f.Seasons, domain)
	rs.AvailabilityCheckFailed = failed
	return rs, nil
}

func (s *service) CheckAvailability(ctx context.Context, domain listing.Domain, listingID string, dates occupancy.DateRange) (bool, error) {
	if !domain.Valid() {
		return false, ErrInvalidDomain
	}

	if _, err := s.listings.GetByID(ctx, domain, listingID); err != nil {
		switch {
		case errors.Is(err, listing.ErrNotFound):
			return false, ErrListingNotFound
		default:
			return false, unavailable(&RepositoryError{Err: err, Timeout: db.IsTimeout(err)})
		}
	}

	res, err := s.resolver.Resolve(ctx, []string{listingID}, &dates)
	if err != nil {
		var lookupErr *OccupancyLookupError
		if errors.As(err, &lookupErr) && lookupErr.Timeout {
			return false, apperror.Wrap(err, http.StatusGatewayTimeout, "availability check timed out, retry")
		}
		return false, apperror.Wrap(err, http.StatusServiceUnavailable, "availability check unavailable, retry")
	}
	return !res.Excludes(listingID), nil
}

// findAll reads every row matching q, one batch at a time. A short batch
// marks the end of the catalogue.
func (s *service) findAll(ctx context.Context, q listing.Query) ([]*listing.Candidate, error) {
	if s.batchSize == 0 {
		return s.listings.Find(ctx, q)
	}

	q.Limit = s.batchSize
	var all []*listing.Candidate
	for {
		batch, err := s.listings.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if uint64(len(batch)) < q.Limit {
			return all, nil
		}
		q.Offset += q.Limit
	}
}

func candidateIDs(candidates []*listing.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}
