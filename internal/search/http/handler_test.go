package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/search"
	searchHttp "github.com/nekogravitycat/stay-search-backend/internal/search/http"
)

const listingID = "3f1c7a52-5d0e-4b8a-9a43-0c6f1f0d2b11"

type mockService struct {
	mock.Mock
}

func (m *mockService) Search(ctx context.Context, f search.FilterSet, domain listing.Domain) (*search.ResultSet, error) {
	args := m.Called(ctx, f, domain)
	rs, _ := args.Get(0).(*search.ResultSet)
	return rs, args.Error(1)
}

func (m *mockService) CheckAvailability(ctx context.Context, domain listing.Domain, id string, dates occupancy.DateRange) (bool, error) {
	args := m.Called(ctx, domain, id, dates)
	return args.Bool(0), args.Error(1)
}

func setupRouter(svc *mockService, debounce time.Duration) (*gin.Engine, *search.Registry) {
	return setupRouterWithLimit(svc, debounce, 0)
}

func setupRouterWithLimit(svc *mockService, debounce time.Duration, maxSessions int) (*gin.Engine, *search.Registry) {
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()
	sessions := search.NewRegistry(svc, debounce, time.Minute, maxSessions, logger)

	r := gin.New()
	searchHttp.RegisterRoutes(r.Group("/v1"), searchHttp.NewHandler(svc, sessions))
	return r, sessions
}

func executeRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func candidates(n int) []*listing.Candidate {
	out := make([]*listing.Candidate, n)
	for i := range out {
		out[i] = &listing.Candidate{ID: string(rune('a' + i)), Domain: listing.DomainProperties, Title: "Stay"}
	}
	return out
}

func TestSearch(t *testing.T) {
	t.Run("Maps query parameters to filters", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		svc.On("Search", mock.Anything, mock.MatchedBy(func(f search.FilterSet) bool {
			return f.Query == "loft" &&
				f.CheckIn != nil && f.CheckIn.Equal(time.Date(2024, 7, 12, 0, 0, 0, 0, time.UTC)) &&
				f.CheckOut != nil && f.CheckOut.Equal(time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)) &&
				f.PricePerDay != nil && *f.PricePerDay == 50 &&
				f.MinBedrooms == 2 &&
				assert.ObjectsAreEqual([]string{"wifi", "pool", "parking"}, f.Amenities) &&
				assert.ObjectsAreEqual([]string{"sep_jun", "oct_jun"}, f.Seasons) &&
				f.Bounds != nil && f.Bounds.Min.Lat() == 40 && f.Bounds.Max.Lon() == -3
		}), listing.DomainProperties).Return(&search.ResultSet{
			Listings:                  candidates(3),
			AvailabilityFilterApplied: true,
		}, nil)

		w := executeRequest(r, "GET", "/v1/search/properties?q=loft&check_in=2024-07-12&check_out=2024-07-20"+
			"&price_day=50&bedrooms=2&amenities=wifi,pool&amenities=parking&seasons=sep_jun,oct_jun"+
			"&min_lat=40&min_lng=-4&max_lat=41&max_lng=-3&page=1&page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[searchHttp.SearchResponse](t, w)
		assert.Len(t, resp.Items, 2)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.PageSize)
		assert.True(t, resp.AvailabilityFilterApplied)
		assert.False(t, resp.AvailabilityCheckFailed)
		assert.Equal(t, []string{}, resp.Items[0].Amenities)
		svc.AssertExpectations(t)
	})

	t.Run("Reports a failed availability check", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)
		svc.On("Search", mock.Anything, mock.Anything, listing.DomainExperiences).
			Return(&search.ResultSet{Listings: candidates(1), AvailabilityCheckFailed: true}, nil)

		w := executeRequest(r, "GET", "/v1/search/experiences?check_in=2024-07-12&check_out=2024-07-20", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[searchHttp.SearchResponse](t, w)
		assert.True(t, resp.AvailabilityCheckFailed)
		assert.False(t, resp.AvailabilityFilterApplied)
	})

	t.Run("Rejects partial bounds before searching", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		w := executeRequest(r, "GET", "/v1/search/properties?min_lat=40&max_lat=41", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects malformed dates", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		w := executeRequest(r, "GET", "/v1/search/properties?check_in=12/07/2024", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Maps service errors to status codes", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantError  string
		}{
			{"Invalid domain", search.ErrInvalidDomain, http.StatusBadRequest, "domain must be properties or experiences"},
			{"Invalid range", search.ErrInvalidDateRange, http.StatusBadRequest, "check-in must not be after check-out"},
			{"Unexpected failure", errors.New("unexpected"), http.StatusInternalServerError, "internal server error"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &mockService{}
				r, _ := setupRouter(svc, 0)
				svc.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

				w := executeRequest(r, "GET", "/v1/search/cars", nil)
				assert.Equal(t, tt.wantStatus, w.Code)
				assert.Equal(t, tt.wantError, decode[map[string]string](t, w)["error"])
			})
		}
	})
}

func TestAvailability(t *testing.T) {
	dates, err := occupancy.ParseDateRange("2024-07-12", "2024-07-20")
	require.NoError(t, err)

	t.Run("Available", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)
		svc.On("CheckAvailability", mock.Anything, listing.DomainProperties, listingID, dates).Return(true, nil)

		w := executeRequest(r, "GET", "/v1/listings/properties/"+listingID+"/availability?check_in=2024-07-12&check_out=2024-07-20", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[searchHttp.AvailabilityResponse](t, w)
		assert.True(t, resp.Available)
		assert.Equal(t, listingID, resp.ListingID)
		assert.Equal(t, 9, resp.Days)
	})

	t.Run("Missing dates", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		w := executeRequest(r, "GET", "/v1/listings/properties/"+listingID+"/availability?check_in=2024-07-12", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Inverted range", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		w := executeRequest(r, "GET", "/v1/listings/properties/"+listingID+"/availability?check_in=2024-07-20&check_out=2024-07-12", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown listing", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)
		svc.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, search.ErrListingNotFound)

		w := executeRequest(r, "GET", "/v1/listings/experiences/"+listingID+"/availability?check_in=2024-07-12&check_out=2024-07-20", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid id", func(t *testing.T) {
		svc := &mockService{}
		r, _ := setupRouter(svc, 0)

		w := executeRequest(r, "GET", "/v1/listings/properties/not-a-uuid/availability?check_in=2024-07-12&check_out=2024-07-20", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListSeasons(t *testing.T) {
	r, _ := setupRouter(&mockService{}, 0)

	w := executeRequest(r, "GET", "/v1/seasons", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Items []searchHttp.SeasonResponse `json:"items"`
	}](t, w)
	require.Len(t, resp.Items, len(search.Seasons))
	assert.Equal(t, "sep_may", resp.Items[0].Tag)
	assert.Equal(t, 9, resp.Items[0].StartMonth)
	assert.Equal(t, "September to May", resp.Items[0].Label)
}

func TestGetSeason(t *testing.T) {
	r, _ := setupRouter(&mockService{}, 0)

	w := executeRequest(r, "GET", "/v1/seasons/OCT_JUN", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[searchHttp.SeasonResponse](t, w)
	assert.Equal(t, "oct_jun", resp.Tag)
	assert.Equal(t, 10, resp.StartMonth)
	assert.Equal(t, 6, resp.EndMonth)
	assert.Equal(t, "October to June", resp.Label)

	w = executeRequest(r, "GET", "/v1/seasons/summer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions(t *testing.T) {
	svc := &mockService{}
	r, sessions := setupRouter(svc, 10*time.Millisecond)
	svc.On("Search", mock.Anything, mock.MatchedBy(func(f search.FilterSet) bool {
		return f.Query == "cabin"
	}), listing.DomainProperties).Return(&search.ResultSet{Listings: candidates(2)}, nil)

	// Create
	w := executeRequest(r, "POST", "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[searchHttp.SessionResponse](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "idle", created.State)
	assert.Nil(t, created.Result)
	assert.Equal(t, 1, sessions.Len())

	// Invalid filters are rejected synchronously
	w = executeRequest(r, "PUT", "/v1/sessions/"+created.ID, map[string]any{
		"domain":    "properties",
		"check_in":  "2024-07-20",
		"check_out": "2024-07-12",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Schedule
	w = executeRequest(r, "PUT", "/v1/sessions/"+created.ID, map[string]any{
		"domain": "properties",
		"q":      "cabin",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.True(t, decode[searchHttp.SessionResponse](t, w).Pending)

	// Poll until settled
	var snap searchHttp.SessionResponse
	require.Eventually(t, func() bool {
		w := executeRequest(r, "GET", "/v1/sessions/"+created.ID+"?page_size=1", nil)
		if w.Code != http.StatusOK {
			return false
		}
		snap = decode[searchHttp.SessionResponse](t, w)
		return snap.State == "settled"
	}, time.Second, 5*time.Millisecond)

	require.NotNil(t, snap.Result)
	assert.Equal(t, 2, snap.Result.Total)
	assert.Len(t, snap.Result.Items, 1)
	assert.Equal(t, uint64(1), snap.ResultSeq)

	// Delete
	w = executeRequest(r, "DELETE", "/v1/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = executeRequest(r, "GET", "/v1/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_Limit(t *testing.T) {
	r, sessions := setupRouterWithLimit(&mockService{}, 0, 1)

	w := executeRequest(r, "POST", "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[searchHttp.SessionResponse](t, w)

	w = executeRequest(r, "POST", "/v1/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 1, sessions.Len())

	w = executeRequest(r, "DELETE", "/v1/sessions/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = executeRequest(r, "POST", "/v1/sessions", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSessions_Unknown(t *testing.T) {
	r, _ := setupRouter(&mockService{}, 0)
	unknown := "00000000-0000-4000-8000-000000000000"

	w := executeRequest(r, "PUT", "/v1/sessions/"+unknown, map[string]any{"domain": "properties"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = executeRequest(r, "DELETE", "/v1/sessions/"+unknown, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = executeRequest(r, "GET", "/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
