package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/request"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/response"
	"github.com/nekogravitycat/stay-search-backend/internal/search"
)

type Handler struct {
	service  search.Service
	sessions *search.Registry
}

func NewHandler(service search.Service, sessions *search.Registry) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

// Search runs a one-shot search over a catalogue and returns one page of it.
func (h *Handler) Search(c *gin.Context) {
	var uri DomainRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid domain", err)
		return
	}

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filters, err := req.ToFilterSet()
	if err != nil {
		response.Error(c, err)
		return
	}

	rs, err := h.service.Search(c.Request.Context(), filters, listing.Domain(uri.Domain))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSearchResponse(rs, req.Page, req.PageSize))
}

// Availability checks one listing against a stay.
func (h *Handler) Availability(c *gin.Context) {
	var uri ListingURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid listing", err)
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "check_in and check_out are required as YYYY-MM-DD", err)
		return
	}

	dates, err := occupancy.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), listing.Domain(uri.Domain), uri.ID, dates)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		ListingID: uri.ID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Available: available,
		Days:      dates.Days(),
	})
}

func (h *Handler) ListSeasons(c *gin.Context) {
	items := make([]SeasonResponse, len(search.Seasons))
	for i, s := range search.Seasons {
		items[i] = NewSeasonResponse(s)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetSeason describes one season tag. Tags are matched case-insensitively.
func (h *Handler) GetSeason(c *gin.Context) {
	var uri SeasonURIRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid season tag", err)
		return
	}

	s, ok := search.LookupSeason(strings.ToLower(strings.TrimSpace(uri.Tag)))
	if !ok {
		response.Error(c, search.ErrSeasonNotFound)
		return
	}
	c.JSON(http.StatusOK, NewSeasonResponse(s))
}

// CreateSession opens a search session. The client then pushes filter
// changes with UpdateSession and polls GetSession.
func (h *Handler) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSessionResponse(s.Snapshot(), 1, request.DefaultPageSize))
}

func (h *Handler) GetSession(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid session id", err)
		return
	}

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	params.Normalize()

	s, err := h.sessions.Get(uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(s.Snapshot(), params.Page, params.PageSize))
}

// UpdateSession replaces the session's filters. The search runs after the
// debounce window; invalid filters are rejected immediately.
func (h *Handler) UpdateSession(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid session id", err)
		return
	}

	var body ScheduleSearchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	s, err := h.sessions.Get(uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filters, err := body.ToFilterSet()
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := s.Schedule(filters, listing.Domain(body.Domain)); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, NewSessionResponse(s.Snapshot(), 1, request.DefaultPageSize))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid session id", err)
		return
	}

	if err := h.sessions.Delete(uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
