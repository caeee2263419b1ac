package search

import (
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
)

// FilterSet is one search request. The zero value searches everything.
// Optional numeric filters are pointers: nil means unset.
type FilterSet struct {
	Query    string // substring over title/name and description
	Location string
	Zone     string

	// Both must be set for the availability filter to run.
	CheckIn  *time.Time
	CheckOut *time.Time

	PricePerDay   *float64 // ceiling
	PricePerMonth *float64 // ceiling, properties only
	MinBedrooms   int
	MinBathrooms  int

	PropertyType   string
	ExperienceType string

	Amenities []string // listing must have all of them
	Seasons   []string // listing must share at least one

	// Map viewport; Min is the south-west corner, Max the north-east.
	Bounds *orb.Bound
}

// Normalize returns a cleaned copy: text trimmed, season tags lower-cased,
// list filters de-duplicated. The receiver's slices are never shared with the copy.
func (f FilterSet) Normalize() FilterSet {
	n := f
	n.Query = strings.TrimSpace(f.Query)
	n.Location = strings.TrimSpace(f.Location)
	n.Zone = strings.TrimSpace(f.Zone)
	n.PropertyType = strings.TrimSpace(f.PropertyType)
	n.ExperienceType = strings.TrimSpace(f.ExperienceType)
	n.Amenities = normalizeTokens(f.Amenities, false)
	n.Seasons = normalizeTokens(f.Seasons, true)
	if f.Bounds != nil {
		b := *f.Bounds
		n.Bounds = &b
	}
	return n
}

// Validate rejects filter sets that must not reach the backend.
func (f FilterSet) Validate() error {
	if _, err := f.DateRange(); err != nil {
		return err
	}
	if f.Bounds != nil && !validBounds(*f.Bounds) {
		return ErrInvalidBounds
	}
	return nil
}

// DateRange returns the requested stay, or nil when either bound is missing.
func (f FilterSet) DateRange() (*occupancy.DateRange, error) {
	if f.CheckIn == nil || f.CheckOut == nil {
		return nil, nil
	}
	r, err := occupancy.NewDateRange(*f.CheckIn, *f.CheckOut)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// validBounds allows Min east of Max in longitude: that viewport crosses the
// antimeridian. Latitude must not be inverted.
func validBounds(b orb.Bound) bool {
	for _, p := range []orb.Point{b.Min, b.Max} {
		if p.Lat() < -90 || p.Lat() > 90 || p.Lon() < -180 || p.Lon() > 180 {
			return false
		}
	}
	return b.Min.Lat() <= b.Max.Lat()
}

func normalizeTokens(tokens []string, lower bool) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if lower {
			token = strings.ToLower(token)
		}
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
