package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Booking records a guest's stay request against a Place.  Price is a
// snapshot taken at creation and does not follow later listing edits.
type Booking struct {
	ID        uint64    `json:"_id,string"`
	PlaceID   uint64    `json:"place,string"`
	UserID    *uint64   `json:"user,omitempty,string"`
	CheckIn   Date      `json:"checkIn"`
	CheckOut  Date      `json:"checkOut"`
	NumGuests int       `json:"numGuests"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingFields is the POST /booking payload.
type BookingFields struct {
	PlaceID   uint64  `json:"place,string"`
	CheckIn   Date    `json:"checkIn"`
	CheckOut  Date    `json:"checkOut"`
	NumGuests int     `json:"numGuests"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Price     float64 `json:"price"`
}

// Nights is the number of whole nights between check-in and check-out.
func (f BookingFields) Nights() int {
	return int(math.Round(f.CheckOut.Sub(f.CheckIn.Time).Hours() / 24))
}

const dateLayout = "2006-01-02"

// Date is a calendar day.  It unmarshals from either "2006-01-02" or a full
// RFC 3339 timestamp and always marshals as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		*d = NewDate(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	*d = NewDate(t)
	return nil
}
