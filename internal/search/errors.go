package search

import (
	"errors"
	"net/http"

	"github.com/nekogravitycat/stay-search-backend/internal/occupancy"
	"github.com/nekogravitycat/stay-search-backend/internal/pkg/apperror"
)

var (
	ErrInvalidDomain    = apperror.New(http.StatusBadRequest, "domain must be properties or experiences")
	ErrInvalidDateRange = occupancy.ErrInvalidDateRange
	ErrInvalidBounds    = apperror.New(http.StatusBadRequest, "invalid map bounds")
	ErrListingNotFound  = apperror.New(http.StatusNotFound, "listing not found")
	ErrSessionNotFound  = apperror.New(http.StatusNotFound, "search session not found")
	ErrSeasonNotFound   = apperror.New(http.StatusNotFound, "season not found")
	ErrTooManySessions  = apperror.New(http.StatusServiceUnavailable, "too many active search sessions, retry later")

	// ErrStaleResult is returned by Session.Run when a newer invocation started
	// before this one finished. The result was discarded.
	ErrStaleResult = errors.New("search result superseded by a newer search")
)

// RepositoryError reports that the listing repository could not be queried.
// No partial results accompany it.
type RepositoryError struct {
	Err     error
	Timeout bool
}

func (e *RepositoryError) Error() string {
	return "listing repository: " + e.Err.Error()
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// OccupancyLookupError reports that one of the occupancy sources could not be read.
type OccupancyLookupError struct {
	Source  string // "reservations" or "blocked_days"
	Err     error
	Timeout bool
}

func (e *OccupancyLookupError) Error() string {
	return "occupancy lookup (" + e.Source + "): " + e.Err.Error()
}

func (e *OccupancyLookupError) Unwrap() error {
	return e.Err
}

// unavailable maps a repository failure to the user-facing retry error.
func unavailable(err *RepositoryError) error {
	if err.Timeout {
		return apperror.Wrap(err, http.StatusGatewayTimeout, "search timed out, retry")
	}
	return apperror.Wrap(err, http.StatusServiceUnavailable, "search unavailable, retry")
}
