// Package listing provides the vehicle listing model, data access and the
// browse filter.
package listing

import "time"

// Status is where a listing is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
)

// ValidStatuses is the set of allowed listing statuses.
var ValidStatuses = []Status{StatusPending, StatusAvailable, StatusSold}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Next returns the status a staff toggle moves a listing to:
// available and sold swap, pending becomes available.
func (s Status) Next() Status {
	switch s {
	case StatusAvailable:
		return StatusSold
	case StatusSold, StatusPending:
		return StatusAvailable
	default:
		return s
	}
}

// Fuel is the fuel type of a vehicle.
type Fuel string

const (
	FuelPetrol   Fuel = "Essence"
	FuelDiesel   Fuel = "Diesel"
	FuelHybrid   Fuel = "Hybride"
	FuelElectric Fuel = "Electrique"
)

// ValidFuels is the set of allowed fuel types.
var ValidFuels = []Fuel{FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric}

// IsValid checks if a fuel type is recognized.
func (f Fuel) IsValid() bool {
	for _, v := range ValidFuels {
		if f == v {
			return true
		}
	}
	return false
}

// Transmission is the gearbox type of a vehicle.
type Transmission string

const (
	TransmissionManual    Transmission = "Manuelle"
	TransmissionAutomatic Transmission = "Automatique"
)

// IsValid checks if a transmission type is recognized.
func (t Transmission) IsValid() bool {
	return t == TransmissionManual || t == TransmissionAutomatic
}

// DefaultCity is used when a listing is created without a city.
const DefaultCity = "Yaoundé"

// PremiumPrice is the price floor of the premium ("VIP") selection.
const PremiumPrice int64 = 20_000_000

// Listing is a vehicle offered for sale.
type Listing struct {
	ID           int64        `db:"id" json:"id"`
	Brand        string       `db:"brand" json:"brand"`
	Model        string       `db:"model" json:"model"`
	Price        int64        `db:"price" json:"price"`
	Year         int          `db:"year" json:"year"`
	Mileage      int          `db:"mileage" json:"mileage"`
	Fuel         Fuel         `db:"fuel" json:"fuel"`
	Transmission Transmission `db:"transmission" json:"transmission"`
	City         string       `db:"city" json:"city"`
	Status       Status       `db:"status" json:"status"`
	Description  string       `db:"description" json:"description"`
	Image        *string      `db:"image" json:"image,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// Title is the short human label of a listing.
func (l *Listing) Title() string {
	return l.Brand + " " + l.Model
}
