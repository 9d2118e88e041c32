package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
	"github.com/Nestorservice/vente-voiture/internal/db"
)

// Filter holds the optional browse criteria. Zero values impose no constraint;
// all set criteria must hold at once.
type Filter struct {
	Query        string       `json:"q,omitempty"`            // substring of brand, model or city
	Fuel         Fuel         `json:"fuel,omitempty"`         // exact
	Transmission Transmission `json:"transmission,omitempty"` // exact
	PriceMin     *int64       `json:"price_min,omitempty"`    // inclusive
	PriceMax     *int64       `json:"price_max,omitempty"`    // inclusive
	YearMin      *int         `json:"year_min,omitempty"`     // inclusive
	YearMax      *int         `json:"year_max,omitempty"`     // inclusive
	City         string       `json:"city,omitempty"`         // substring
}

// FilterFromValues reads a Filter from query parameters
// q, fuel, transmission, price_min, price_max, year_min, year_max and city.
// Empty values are treated as absent.
func FilterFromValues(v url.Values) (Filter, error) {
	f := Filter{
		Query:        strings.TrimSpace(v.Get("q")),
		Fuel:         Fuel(strings.TrimSpace(v.Get("fuel"))),
		Transmission: Transmission(strings.TrimSpace(v.Get("transmission"))),
		City:         strings.TrimSpace(v.Get("city")),
	}

	verr := &apperr.ValidationError{}
	if f.Fuel != "" && !f.Fuel.IsValid() {
		verr.Add("fuel", "unknown fuel type")
	}
	if f.Transmission != "" && !f.Transmission.IsValid() {
		verr.Add("transmission", "unknown transmission")
	}

	f.PriceMin = parseInt64(v, "price_min", verr)
	f.PriceMax = parseInt64(v, "price_max", verr)
	f.YearMin = parseInt(v, "year_min", verr)
	f.YearMax = parseInt(v, "year_max", verr)

	if err := verr.OrNil(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f.Query == "" && f.Fuel == "" && f.Transmission == "" && f.City == "" &&
		f.PriceMin == nil && f.PriceMax == nil && f.YearMin == nil && f.YearMax == nil
}

// conditions returns the SQL predicates and their arguments.
func (f Filter) conditions() ([]string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Query != "" {
		p := db.ContainsPattern(f.Query)
		conds = append(conds, "("+db.Contains("brand")+" OR "+db.Contains("model")+" OR "+db.Contains("city")+")")
		args = append(args, p, p, p)
	}
	if f.Fuel != "" {
		conds = append(conds, "fuel = ?")
		args = append(args, string(f.Fuel))
	}
	if f.Transmission != "" {
		conds = append(conds, "transmission = ?")
		args = append(args, string(f.Transmission))
	}
	if f.PriceMin != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *f.PriceMax)
	}
	if f.YearMin != nil {
		conds = append(conds, "year >= ?")
		args = append(args, *f.YearMin)
	}
	if f.YearMax != nil {
		conds = append(conds, "year <= ?")
		args = append(args, *f.YearMax)
	}
	if f.City != "" {
		conds = append(conds, db.Contains("city"))
		args = append(args, db.ContainsPattern(f.City))
	}

	return conds, args
}

func parseInt64(v url.Values, key string, verr *apperr.ValidationError) *int64 {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		verr.Add(key, "must be a whole number")
		return nil
	}
	return &n
}

func parseInt(v url.Values, key string, verr *apperr.ValidationError) *int {
	n := parseInt64(v, key, verr)
	if n == nil {
		return nil
	}
	i := int(*n)
	return &i
}
