package occupancy

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/stay-search-backend/internal/pkg/apperror"
)

var (
	ErrInvalidDateRange = apperror.New(http.StatusBadRequest, "check-in must not be after check-out")
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DateRange is a closed range of calendar days. Both bounds are inclusive
// and normalized to UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a normalized range and rejects start after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.Start.After(r.End) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, apperror.Wrap(err, http.StatusBadRequest, "invalid check-in date")
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, apperror.Wrap(err, http.StatusBadRequest, "invalid check-out date")
	}
	return NewDateRange(s, e)
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps applies the closed-interval test start <= r.End AND end >= r.Start.
func (r DateRange) Overlaps(start, end time.Time) bool {
	return !Day(start).After(r.End) && !Day(end).Before(r.Start)
}

// Contains reports whether day falls within the range, bounds included.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days is the number of calendar days covered by the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// BusyInterval is a reservation occupying a listing over a closed date range.
type BusyInterval struct {
	ReservationID string
	ListingID     string
	Start         time.Time
	End           time.Time
	Status        Status
}

// Blocks reports whether the interval makes its listing unavailable within r.
// Only confirmed reservations block.
func (b BusyInterval) Blocks(r DateRange) bool {
	return b.Status == StatusConfirmed && r.Overlaps(b.Start, b.End)
}

// BlockedDay is a single day manually closed by the host.
type BlockedDay struct {
	ListingID string
	Date      time.Time
}

// Blocks reports whether the day falls inside r.
func (b BlockedDay) Blocks(r DateRange) bool {
	return r.Contains(b.Date)
}
