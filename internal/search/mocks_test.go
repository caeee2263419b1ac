package search

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) FindBusyIntervals(ctx context.Context, listingIDs []string, status occupancy.Status, within occupancy.DateRange) ([]occupancy.BusyInterval, error) {
	args := m.Called(ctx, listingIDs, status, within)
	found, _ := args.Get(0).([]occupancy.BusyInterval)
	return found, args.Error(1)
}

func (m *mockOracle) FindBlockedDays(ctx context.Context, listingIDs []string, within occupancy.DateRange) ([]occupancy.BlockedDay, error) {
	args := m.Called(ctx, listingIDs, within)
	found, _ := args.Get(0).([]occupancy.BlockedDay)
	return found, args.Error(1)
}

type mockListings struct {
	mock.Mock
}

func (m *mockListings) Find(ctx context.Context, q listing.Query) ([]*listing.Candidate, error) {
	args := m.Called(ctx, q)
	found, _ := args.Get(0).([]*listing.Candidate)
	return found, args.Error(1)
}

func (m *mockListings) GetByID(ctx context.Context, domain listing.Domain, id string) (*listing.Candidate, error) {
	args := m.Called(ctx, domain, id)
	found, _ := args.Get(0).(*listing.Candidate)
	return found, args.Error(1)
}

// catalogue is an in-memory listing.Repository that ignores predicates and
// honours Limit and Offset over its rows.
type catalogue struct {
	rows    []*listing.Candidate
	queries []listing.Query
}

func (c *catalogue) Find(_ context.Context, q listing.Query) ([]*listing.Candidate, error) {
	c.queries = append(c.queries, q)
	rows := c.rows
	if q.Offset >= uint64(len(rows)) {
		return nil, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && q.Limit < uint64(len(rows)) {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (c *catalogue) GetByID(_ context.Context, _ listing.Domain, id string) (*listing.Candidate, error) {
	for _, r := range c.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, listing.ErrNotFound
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(start, end time.Time) occupancy.DateRange {
	r, err := occupancy.NewDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func candidate(id string) *listing.Candidate {
	return &listing.Candidate{ID: id, Domain: listing.DomainProperties, Title: "Listing " + id}
}
