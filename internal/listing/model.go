package listing

import (
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
)

var (
	ErrNotFound = errors.New("listing not found")
)

// Domain selects which catalogue is searched. Properties and experiences
// have disjoint attribute sets and live in separate tables.
type Domain string

const (
	DomainProperties  Domain = "properties"
	DomainExperiences Domain = "experiences"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	return d == DomainProperties || d == DomainExperiences
}

// Candidate is a searchable listing as read from the catalogue.
// Fields that do not apply to the candidate's domain are left zero.
type Candidate struct {
	ID          string
	Domain      Domain
	Title       string // name for experiences
	Description string
	Location    string
	Zone        string
	Type        string // property_type or experience_type

	// Properties
	WeekdayPrice *float64
	WeekendPrice *float64
	MonthlyPrice *float64
	Bedrooms     int
	Bathrooms    int
	Seasons      []string // nil when the listing has no season windows

	// Experiences
	Price *float64

	Amenities []string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

// Query is a compiled backend query for one domain. Predicates are ANDed;
// an empty list matches every listing in the domain. Limit and Offset select
// a window of the ordered result; a zero Limit returns every row.
type Query struct {
	Domain     Domain
	Predicates []squirrel.Sqlizer
	Limit      uint64
	Offset     uint64
}
