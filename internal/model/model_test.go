package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() PlaceFields {
	return PlaceFields{
		Title:     "Cabin",
		Address:   "1 Lake Rd",
		CheckIn:   14,
		CheckOut:  11,
		MaxGuests: 2,
		Price:     90,
	}
}

func TestPlaceFields_NormalizeKeepsPhotoOrderAndDedupesPerks(t *testing.T) {
	f := PlaceFields{
		Title:  "  Cabin ",
		Photos: []string{"b.jpg", " ", "a.jpg"},
		Perks:  []string{"wifi", "parking", "wifi", ""},
	}.Normalize()

	assert.Equal(t, "Cabin", f.Title)
	assert.Equal(t, []string{"b.jpg", "a.jpg"}, f.Photos)
	assert.Equal(t, []string{"wifi", "parking"}, f.Perks)
}

func TestPlaceFields_Validate(t *testing.T) {
	require.NoError(t, validFields().Validate())

	bad := validFields()
	bad.Title = ""
	bad.CheckIn = 24
	bad.MaxGuests = 0
	bad.Price = -1

	err := bad.Validate()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Problems, 4)
}

func TestPlace_JSONUsesStringIDs(t *testing.T) {
	p := Place{ID: 7, OwnerID: 3, Title: "Cabin"}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "7", m["_id"])
	assert.Equal(t, "3", m["owner"])
}

func TestUser_HashNeverSerialized(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Name: "Alice", Email: "a@x.com", PasswordHash: "$2a$10$secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestDate_UnmarshalBothLayouts(t *testing.T) {
	var f BookingFields
	body := `{"place":"5","checkIn":"2026-07-01","checkOut":"2026-07-04T10:00:00Z","numGuests":2}`
	require.NoError(t, json.Unmarshal([]byte(body), &f))

	assert.Equal(t, uint64(5), f.PlaceID)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), f.CheckIn.Time)
	assert.Equal(t, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), f.CheckOut.Time)
	assert.Equal(t, 3, f.Nights())
}

func TestDate_RejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &d))
}

func TestDate_Marshal(t *testing.T) {
	b, err := json.Marshal(NewDate(time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2026-07-01"`, string(b))
}
