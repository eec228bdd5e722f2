package appointments

import (
	"net/url"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the server's appointment status value.
type Status string

const (
	StatusScheduled  Status = "agendado"
	StatusInProgress Status = "em_andamento"
	StatusCompleted  Status = "concluido"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted}

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusScheduled:
		return "Agendado"
	case StatusInProgress:
		return "Em andamento"
	case StatusCompleted:
		return "Concluído"
	case "":
		return "Todos"
	default:
		return string(s)
	}
}

// Next cycles through the statuses, ending with the empty (any) status.
func (s Status) Next() Status {
	idx := slices.Index(Statuses, s)
	if idx == len(Statuses)-1 {
		return ""
	}
	return Statuses[idx+1]
}

// Appointment is one booking as returned by the API.
type Appointment struct {
	ID               int64           `json:"id"`
	ClientName       string          `json:"client_name,omitempty"`
	ProfessionalName string          `json:"professional_name,omitempty"`
	ScheduledAt      time.Time       `json:"date_time"`
	Status           Status          `json:"status"`
	ServiceNames     []string        `json:"service_names"`
	PricePaid        decimal.Decimal `json:"price_paid"`
}

const dateLayout = "2006-01-02"

// Filter scopes a list to one calendar day and, optionally, one status.
type Filter struct {
	Date   time.Time
	Status Status
}

// Day returns a filter for the calendar day containing t.
func Day(t time.Time, status Status) Filter {
	y, m, d := t.Date()
	return Filter{Date: time.Date(y, m, d, 0, 0, 0, 0, t.Location()), Status: status}
}

// DateString formats the filter date as YYYY-MM-DD, or "" when unset.
func (f Filter) DateString() string {
	if f.Date.IsZero() {
		return ""
	}
	return f.Date.Format(dateLayout)
}

// Shift moves the filter by days.
func (f Filter) Shift(days int) Filter {
	f.Date = f.Date.AddDate(0, 0, days)
	return f
}

// Query encodes the filter as list query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if date := f.DateString(); date != "" {
		q.Set("date", date)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

// Equal reports whether two filters select the same appointments.
func (f Filter) Equal(other Filter) bool {
	return f.DateString() == other.DateString() && f.Status == other.Status
}

// Page is the list endpoint response. Only the first page is read.
type Page struct {
	Results             []Appointment       `json:"results"`
	Count               *int                `json:"count"`
	CompletedTotalCount int                 `json:"completed_total_count"`
	CompletedTotalPrice decimal.NullDecimal `json:"completed_total_price"`
	Next                *string             `json:"next"`
}

// Summary aggregates one day's appointments.
type Summary struct {
	TotalCount       int
	CompletedCount   int
	CompletedRevenue decimal.Decimal
}

// View is what a list view shows: the filter its items were loaded for, the
// items, and their summary.
type View struct {
	Filter  Filter
	Items   []Appointment
	Summary Summary
}

func cloneView(v View) View {
	if v.Items == nil {
		return v
	}
	items := make([]Appointment, len(v.Items))
	for i, item := range v.Items {
		item.ServiceNames = slices.Clone(item.ServiceNames)
		items[i] = item
	}
	v.Items = items
	return v
}
