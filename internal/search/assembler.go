package search

import (
	"github.com/nekogravitycat/stay-search-backend/internal/listing"
)

// ResultSet is the final, ordered outcome of a search.
type ResultSet struct {
	Listings []*listing.Candidate
	// AvailabilityFilterApplied is true when a date range was checked, even if
	// nothing was excluded.
	AvailabilityFilterApplied bool
	// AvailabilityCheckFailed is true when the occupancy lookup failed and the
	// listings were returned without date-based exclusion.
	AvailabilityCheckFailed bool
}

// Assemble drops excluded candidates and those that miss the requested seasons.
// Repository order is kept. Season tags only exist on properties, so they are
// ignored for every other domain.
func Assemble(candidates []*listing.Candidate, res Resolution, seasons []string, domain listing.Domain) *ResultSet {
	if domain != listing.DomainProperties {
		seasons = nil
	}

	kept := make([]*listing.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if res.Excludes(c.ID) {
			continue
		}
		if !MatchesSeasons(c, seasons) {
			continue
		}
		kept = append(kept, c)
	}

	return &ResultSet{
		Listings:                  kept,
		AvailabilityFilterApplied: res.Applied,
	}
}
