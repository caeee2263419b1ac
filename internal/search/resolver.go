package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/stay-search-backend/internal/db"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
)

// Resolution is the outcome of an availability check.
type Resolution struct {
	// Listings with a confirmed reservation or blocked day in the range.
	Unavailable map[string]struct{}
	// Applied is true when a date range was given and both sources were read.
	Applied bool
}

// Excludes reports whether id is unavailable.
func (r Resolution) Excludes(id string) bool {
	_, ok := r.Unavailable[id]
	return ok
}

// Resolver computes which candidates are unavailable for a date range by
// merging reservations and blocked days.
type Resolver struct {
	oracle  occupancy.Repository
	timeout time.Duration
}

func NewResolver(oracle occupancy.Repository, timeout time.Duration) *Resolver {
	return &Resolver{oracle: oracle, timeout: timeout}
}

// Resolve returns the unavailable subset of candidateIDs for dates.
// A nil range is a no-op that reports Applied=false. On failure it returns an
// empty, not-applied Resolution together with an *OccupancyLookupError.
func (r *Resolver) Resolve(ctx context.Context, candidateIDs []string, dates *occupancy.DateRange) (Resolution, error) {
	if dates == nil {
		return Resolution{}, nil
	}
	if len(candidateIDs) == 0 {
		return Resolution{Unavailable: map[string]struct{}{}, Applied: true}, nil
	}

	var (
		intervals []occupancy.BusyInterval
		blocked   []occupancy.BlockedDay
	)

	// The two sources are independent reads; run them side by side.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := r.bound(gctx)
		defer cancel()

		found, err := r.oracle.FindBusyIntervals(callCtx, candidateIDs, occupancy.StatusConfirmed, *dates)
		if err != nil {
			return &OccupancyLookupError{Source: "reservations", Err: err, Timeout: db.IsTimeout(err)}
		}
		intervals = found
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := r.bound(gctx)
		defer cancel()

		found, err := r.oracle.FindBlockedDays(callCtx, candidateIDs, *dates)
		if err != nil {
			return &OccupancyLookupError{Source: "blocked_days", Err: err, Timeout: db.IsTimeout(err)}
		}
		blocked = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Unavailable: mergeUnavailable(candidateIDs, *dates, intervals, blocked),
		Applied:     true,
	}, nil
}

func (r *Resolver) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// mergeUnavailable unions both sources, keeping only candidates and entries
// that actually block the range. The result does not depend on input order.
func mergeUnavailable(candidateIDs []string, dates occupancy.DateRange, intervals []occupancy.BusyInterval, blocked []occupancy.BlockedDay) map[string]struct{} {
	candidates := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates[id] = struct{}{}
	}

	unavailable := make(map[string]struct{})
	for _, b := range intervals {
		if _, ok := candidates[b.ListingID]; ok && b.Blocks(dates) {
			unavailable[b.ListingID] = struct{}{}
		}
	}
	for _, d := range blocked {
		if _, ok := candidates[d.ListingID]; ok && d.Blocks(dates) {
			unavailable[d.ListingID] = struct{}{}
		}
	}
	return unavailable
}
