package model

import (
	"strings"
	"time"
)

// Place is a bookable listing.  OwnerID is set once at creation and is the
// only input to the ownership check performed on every update.
type Place struct {
	ID          uint64    `json:"_id,string"`
	OwnerID     uint64    `json:"owner,string"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
	Perks       []string  `json:"perks"`
	ExtraInfo   string    `json:"extraInfo"`
	CheckIn     int       `json:"checkIn"`
	CheckOut    int       `json:"checkOut"`
	MaxGuests   int       `json:"maxGuests"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaceFields holds the client editable part of a Place.  Create and
// update both replace every field.
type PlaceFields struct {
	Title       string   `json:"title"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Perks       []string `json:"perks"`
	ExtraInfo   string   `json:"extraInfo"`
	CheckIn     int      `json:"checkIn"`
	CheckOut    int      `json:"checkOut"`
	MaxGuests   int      `json:"maxGuests"`
	Price       float64  `json:"price"`
}

// Normalize trims text, drops empty photo references and de-duplicates perks
// keeping the first occurrence.  Photo order is preserved.
func (f PlaceFields) Normalize() PlaceFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Address = strings.TrimSpace(f.Address)
	f.Description = strings.TrimSpace(f.Description)
	f.ExtraInfo = strings.TrimSpace(f.ExtraInfo)

	photos := make([]string, 0, len(f.Photos))
	for _, p := range f.Photos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}
	f.Photos = photos

	perks := make([]string, 0, len(f.Perks))
	seen := make(map[string]struct{}, len(f.Perks))
	for _, p := range f.Perks {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		perks = append(perks, p)
	}
	f.Perks = perks
	return f
}

// Validate expects normalized fields.
func (f PlaceFields) Validate() error {
	ve := &ValidationError{}
	if f.Title == "" {
		ve.add("title is required")
	}
	if f.Address == "" {
		ve.add("address is required")
	}
	if f.CheckIn < 0 || f.CheckIn > 23 {
		ve.add("checkIn must be an hour between 0 and 23")
	}
	if f.CheckOut < 0 || f.CheckOut > 23 {
		ve.add("checkOut must be an hour between 0 and 23")
	}
	if f.MaxGuests < 1 {
		ve.add("maxGuests must be at least 1")
	}
	if f.Price < 0 {
		ve.add("price must not be negative")
	}
	return ve.orNil()
}
