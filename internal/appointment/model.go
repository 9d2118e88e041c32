// Package appointment handles viewing requests buyers place on listings.
package appointment

import "time"

// Appointment is a request by an account to view a listing at a given time.
type Appointment struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	ListingID   int64     `db:"listing_id" json:"listing_id"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
	Note        string    `db:"note" json:"note"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Detail is an appointment joined with the names staff need to read it.
type Detail struct {
	Appointment
	Username string `db:"username" json:"username"`
	Brand    string `db:"brand" json:"brand"`
	Model    string `db:"model" json:"model"`
}

// When splits appointments around a reference time.
type When string

const (
	Upcoming When = "upcoming" // requested_at >= now
	Past     When = "past"     // requested_at < now
)

// Status reports whether the appointment is upcoming or past relative to now.
func (a *Appointment) Status(now time.Time) When {
	if a.RequestedAt.Before(now) {
		return Past
	}
	return Upcoming
}

// Request is the form a buyer submits.
type Request struct {
	Phone       string
	Email       string
	RequestedAt time.Time
	Note        string
}

// Stats summarizes appointments for the staff page.
type Stats struct {
	Total    int `json:"total"`
	Upcoming int `json:"upcoming"`
	Past     int `json:"past"`
	ThisWeek int `json:"this_week"`
}
