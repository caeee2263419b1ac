package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
)

func TestAssemble_PreservesOrder(t *testing.T) {
	candidates := []*listing.Candidate{candidate("C"), candidate("A"), candidate("B"), candidate("D")}
	res := Resolution{Unavailable: map[string]struct{}{"A": {}}, Applied: true}

	rs := Assemble(candidates, res, nil, listing.DomainProperties)

	assert.Equal(t, []string{"C", "B", "D"}, candidateIDs(rs.Listings))
	assert.True(t, rs.AvailabilityFilterApplied)
	assert.False(t, rs.AvailabilityCheckFailed)
}

func TestAssemble_AppliedWithoutExclusions(t *testing.T) {
	candidates := []*listing.Candidate{candidate("A")}

	rs := Assemble(candidates, Resolution{Unavailable: map[string]struct{}{}, Applied: true}, nil, listing.DomainProperties)
	assert.True(t, rs.AvailabilityFilterApplied)
	assert.Len(t, rs.Listings, 1)

	rs = Assemble(candidates, Resolution{}, nil, listing.DomainProperties)
	assert.False(t, rs.AvailabilityFilterApplied)
	assert.Len(t, rs.Listings, 1)
}

func TestAssemble_Seasons(t *testing.T) {
	a := candidate("A")
	a.Seasons = []string{"sep_jun"}
	b := candidate("B")
	b.Seasons = []string{"oct_may"}
	c := candidate("C")

	rs := Assemble([]*listing.Candidate{a, b, c}, Resolution{}, []string{"sep_jun", "oct_jun"}, listing.DomainProperties)
	assert.Equal(t, []string{"A"}, candidateIDs(rs.Listings))
}

func TestAssemble_SeasonsIgnoredForExperiences(t *testing.T) {
	e := &listing.Candidate{ID: "E", Domain: listing.DomainExperiences}

	rs := Assemble([]*listing.Candidate{e}, Resolution{}, []string{"sep_may"}, listing.DomainExperiences)
	assert.Equal(t, []string{"E"}, candidateIDs(rs.Listings))
}

func TestAssemble_Empty(t *testing.T) {
	rs := Assemble(nil, Resolution{}, nil, listing.DomainProperties)
	assert.NotNil(t, rs.Listings)
	assert.Empty(t, rs.Listings)
}
