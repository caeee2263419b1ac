package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/request"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/response"
	"github.com/nekogravitycat/stay-search-backend/internal/search"
)

// DomainRequest binds the catalogue from the path. The service validates the value.
type DomainRequest struct {
	Domain string `uri:"domain" binding:"required"`
}

type ListingURIRequest struct {
	Domain string `uri:"domain" binding:"required"`
	ID     string `uri:"id" binding:"required,uuid"`
}

type SeasonURIRequest struct {
	Tag string `uri:"tag" binding:"required"`
}

// FilterParams mirrors search.FilterSet on the wire. It binds from the query
// string for one-shot searches and from JSON for session updates.
// List filters accept repeated keys or comma-separated values.
type FilterParams struct {
	Query          string   `form:"q" json:"q"`
	Location       string   `form:"location" json:"location"`
	Zone           string   `form:"zone" json:"zone"`
	CheckIn        string   `form:"check_in" json:"check_in" binding:"omitempty,datetime=2006-01-02"`
	CheckOut       string   `form:"check_out" json:"check_out" binding:"omitempty,datetime=2006-01-02"`
	PriceDay       *float64 `form:"price_day" json:"price_day" binding:"omitempty,gte=0"`
	PriceMonth     *float64 `form:"price_month" json:"price_month" binding:"omitempty,gte=0"`
	Bedrooms       int      `form:"bedrooms" json:"bedrooms" binding:"omitempty,min=0"`
	Bathrooms      int      `form:"bathrooms" json:"bathrooms" binding:"omitempty,min=0"`
	PropertyType   string   `form:"property_type" json:"property_type"`
	ExperienceType string   `form:"experience_type" json:"experience_type"`
	Amenities      []string `form:"amenities" json:"amenities"`
	Seasons        []string `form:"seasons" json:"seasons"`
	MinLat         *float64 `form:"min_lat" json:"min_lat" binding:"omitempty,gte=-90,lte=90"`
	MinLng         *float64 `form:"min_lng" json:"min_lng" binding:"omitempty,gte=-180,lte=180"`
	MaxLat         *float64 `form:"max_lat" json:"max_lat" binding:"omitempty,gte=-90,lte=90"`
	MaxLng         *float64 `form:"max_lng" json:"max_lng" binding:"omitempty,gte=-180,lte=180"`
}

// ToFilterSet converts the wire form into a FilterSet.
func (p FilterParams) ToFilterSet() (search.FilterSet, error) {
	f := search.FilterSet{
		Query:          p.Query,
		Location:       p.Location,
		Zone:           p.Zone,
		PricePerDay:    p.PriceDay,
		PricePerMonth:  p.PriceMonth,
		MinBedrooms:    p.Bedrooms,
		MinBathrooms:   p.Bathrooms,
		PropertyType:   p.PropertyType,
		ExperienceType: p.ExperienceType,
		Amenities:      splitList(p.Amenities),
		Seasons:        splitList(p.Seasons),
	}

	var err error
	if f.CheckIn, err = parseDate(p.CheckIn, "invalid check-in date"); err != nil {
		return search.FilterSet{}, err
	}
	if f.CheckOut, err = parseDate(p.CheckOut, "invalid check-out date"); err != nil {
		return search.FilterSet{}, err
	}

	// The viewport is all four corners or nothing.
	corners := []*float64{p.MinLat, p.MinLng, p.MaxLat, p.MaxLng}
	set := 0
	for _, v := range corners {
		if v != nil {
			set++
		}
	}
	switch set {
	case 0:
	case len(corners):
		f.Bounds = &orb.Bound{
			Min: orb.Point{*p.MinLng, *p.MinLat},
			Max: orb.Point{*p.MaxLng, *p.MaxLat},
		}
	default:
		return search.FilterSet{}, search.ErrInvalidBounds
	}

	return f, nil
}

func parseDate(v, message string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(occupancy.DateLayout, v)
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, message)
	}
	return &t, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type SearchRequest struct {
	request.ListParams
	FilterParams
}

type ScheduleSearchRequest struct {
	Domain string `json:"domain" binding:"required"`
	FilterParams
}

type AvailabilityRequest struct {
	CheckIn  string `form:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" binding:"required,datetime=2006-01-02"`
}

type ListingResponse struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Zone         string    `json:"zone"`
	Type         string    `json:"type"`
	WeekdayPrice *float64  `json:"weekday_price,omitempty"`
	WeekendPrice *float64  `json:"weekend_price,omitempty"`
	MonthlyPrice *float64  `json:"monthly_price,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	Bedrooms     int       `json:"bedrooms,omitempty"`
	Bathrooms    int       `json:"bathrooms,omitempty"`
	Seasons      []string  `json:"seasons,omitempty"`
	Amenities    []string  `json:"amenities"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewListingResponse(c *listing.Candidate) ListingResponse {
	amenities := c.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return ListingResponse{
		ID:           c.ID,
		Domain:       string(c.Domain),
		Title:        c.Title,
		Description:  c.Description,
		Location:     c.Location,
		Zone:         c.Zone,
		Type:         c.Type,
		WeekdayPrice: c.WeekdayPrice,
		WeekendPrice: c.WeekendPrice,
		MonthlyPrice: c.MonthlyPrice,
		Price:        c.Price,
		Bedrooms:     c.Bedrooms,
		Bathrooms:    c.Bathrooms,
		Seasons:      c.Seasons,
		Amenities:    amenities,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		CreatedAt:    c.CreatedAt,
	}
}

type SearchResponse struct {
	response.PageResponse[ListingResponse]
	AvailabilityFilterApplied bool `json:"availability_filter_applied"`
	AvailabilityCheckFailed   bool `json:"availability_check_failed"`
}

func NewSearchResponse(rs *search.ResultSet, page, pageSize int) SearchResponse {
	items := make([]ListingResponse, len(rs.Listings))
	for i, c := range rs.Listings {
		items[i] = NewListingResponse(c)
	}
	return SearchResponse{
		PageResponse:              response.Paginate(items, page, pageSize),
		AvailabilityFilterApplied: rs.AvailabilityFilterApplied,
		AvailabilityCheckFailed:   rs.AvailabilityCheckFailed,
	}
}

type SessionResponse struct {
	ID        string          `json:"id"`
	State     string          `json:"state"`
	Seq       uint64          `json:"seq"`
	Pending   bool            `json:"pending"`
	ResultSeq uint64          `json:"result_seq"`
	Result    *SearchResponse `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewSessionResponse(snap search.Snapshot, page, pageSize int) SessionResponse {
	resp := SessionResponse{
		ID:        snap.ID,
		State:     snap.State.String(),
		Seq:       snap.Seq,
		Pending:   snap.Pending,
		ResultSeq: snap.ResultSeq,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Result != nil {
		result := NewSearchResponse(snap.Result, page, pageSize)
		resp.Result = &result
	}
	if snap.Err != nil {
		resp.Error = publicMessage(snap.Err)
	}
	return resp
}

// publicMessage hides internal causes behind the AppError message.
func publicMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "search unavailable, retry"
}

type AvailabilityResponse struct {
	ListingID string `json:"listing_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Days      int    `json:"days"` // inclusive of both ends
	Available bool   `json:"available"`
}

type SeasonResponse struct {
	Tag        string `json:"tag"`
	StartMonth int    `json:"start_month"`
	EndMonth   int    `json:"end_month"`
	Label      string `json:"label"`
}

func NewSeasonResponse(s search.Season) SeasonResponse {
	return SeasonResponse{
		Tag:        s.Tag,
		StartMonth: int(s.StartMonth),
		EndMonth:   int(s.EndMonth),
		Label:      s.StartMonth.String() + " to " + s.EndMonth.String(),
	}
}
