package search

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
)

// dayRateSlack loosens the property day-rate ceiling. Properties store
// separate weekday and weekend rates instead of one nightly price, so a
// listing passes when either rate is within twice the requested ceiling.
const dayRateSlack = 2

// unsetCategory is the select-box value meaning "any".
const unsetCategory = "all"

// Compiler turns the backend-expressible part of a FilterSet into a listing.Query.
// Season tags are never compiled; they are matched after retrieval.
type Compiler struct {
	// Slider maxima. A ceiling at or above these is treated as unset.
	DayPriceMax   float64
	MonthPriceMax float64
}

// domainColumns names the columns a filter maps to in each catalogue.
type domainColumns struct {
	title    string
	typeName string
}

var columnsFor = map[listing.Domain]domainColumns{
	listing.DomainProperties:  {title: "title", typeName: "property_type"},
	listing.DomainExperiences: {title: "name", typeName: "experience_type"},
}

// Compile builds the query for domain. Filters that do not apply to the
// domain are ignored. An empty FilterSet yields no predicates.
func (c Compiler) Compile(f FilterSet, domain listing.Domain) listing.Query {
	q := listing.Query{Domain: domain}
	cols, ok := columnsFor[domain]
	if !ok {
		return q
	}

	var preds []squirrel.Sqlizer

	if f.Query != "" {
		pattern := "%" + escapeLike(f.Query) + "%"
		preds = append(preds, squirrel.Or{
			squirrel.ILike{cols.title: pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	if f.Location != "" {
		preds = append(preds, squirrel.ILike{"location": "%" + escapeLike(f.Location) + "%"})
	}
	if f.Zone != "" {
		preds = append(preds, squirrel.Eq{"zone": f.Zone})
	}

	if ceiling, ok := ceilingSet(f.PricePerDay, c.DayPriceMax); ok {
		if domain == listing.DomainProperties {
			loose := ceiling * dayRateSlack
			preds = append(preds, squirrel.Or{
				squirrel.LtOrEq{"weekday_price": loose},
				squirrel.LtOrEq{"weekend_price": loose},
			})
		} else {
			preds = append(preds, squirrel.LtOrEq{"price": ceiling})
		}
	}

	switch domain {
	case listing.DomainProperties:
		if ceiling, ok := ceilingSet(f.PricePerMonth, c.MonthPriceMax); ok {
			preds = append(preds, squirrel.LtOrEq{"monthly_price": ceiling})
		}
		if f.MinBedrooms > 0 {
			preds = append(preds, squirrel.GtOrEq{"bedrooms": f.MinBedrooms})
		}
		if f.MinBathrooms > 0 {
			preds = append(preds, squirrel.GtOrEq{"bathrooms": f.MinBathrooms})
		}
		if categorySet(f.PropertyType) {
			preds = append(preds, squirrel.Eq{cols.typeName: f.PropertyType})
		}
	case listing.DomainExperiences:
		if categorySet(f.ExperienceType) {
			preds = append(preds, squirrel.Eq{cols.typeName: f.ExperienceType})
		}
	}

	for _, amenity := range f.Amenities {
		preds = append(preds, squirrel.Expr("amenities @> ARRAY[?]::text[]", amenity))
	}

	if f.Bounds != nil {
		b := *f.Bounds
		preds = append(preds, squirrel.Expr("latitude BETWEEN ? AND ?", b.Min.Lat(), b.Max.Lat()))
		if b.Min.Lon() <= b.Max.Lon() {
			preds = append(preds, squirrel.Expr("longitude BETWEEN ? AND ?", b.Min.Lon(), b.Max.Lon()))
		} else {
			// Across the antimeridian the view is two longitude strips.
			preds = append(preds, squirrel.Or{
				squirrel.GtOrEq{"longitude": b.Min.Lon()},
				squirrel.LtOrEq{"longitude": b.Max.Lon()},
			})
		}
	}

	q.Predicates = preds
	return q
}

// ceilingSet reports whether a price ceiling is an actual filter. Nil,
// non-positive and slider-maximum values mean "no limit".
func ceilingSet(v *float64, sliderMax float64) (float64, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	if sliderMax > 0 && *v >= sliderMax {
		return 0, false
	}
	return *v, true
}

func categorySet(v string) bool {
	return v != "" && !strings.EqualFold(v, unsetCategory)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user text match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
