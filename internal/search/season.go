package search

import (
	"time"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
)

// Season is a recurring long-stay window, e.g. September through May.
type Season struct {
	Tag        string
	StartMonth time.Month
	EndMonth   time.Month
}

// Seasons is the tag vocabulary used by hosts. Matching treats tags as opaque
// strings; the months are for presentation.
var Seasons = []Season{
	{Tag: "sep_may", StartMonth: time.September, EndMonth: time.May},
	{Tag: "sep_jun", StartMonth: time.September, EndMonth: time.June},
	{Tag: "oct_may", StartMonth: time.October, EndMonth: time.May},
	{Tag: "oct_jun", StartMonth: time.October, EndMonth: time.June},
	{Tag: "nov_may", StartMonth: time.November, EndMonth: time.May},
	{Tag: "nov_jun", StartMonth: time.November, EndMonth: time.June},
}

// LookupSeason finds a tag in the vocabulary.
func LookupSeason(tag string) (Season, bool) {
	for _, s := range Seasons {
		if s.Tag == tag {
			return s, true
		}
	}
	return Season{}, false
}

// MatchesSeasons reports whether c shares at least one season tag with requested.
// An empty request always matches; a listing without tags never matches a
// non-empty request.
func MatchesSeasons(c *listing.Candidate, requested []string) bool {
	if len(requested) == 0 {
		return true
	}
	if len(c.Seasons) == 0 {
		return false
	}
	for _, want := range requested {
		for _, have := range c.Seasons {
			if have == want {
				return true
			}
		}
	}
	return false
}
