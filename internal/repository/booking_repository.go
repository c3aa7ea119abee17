package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/stayhub/internal/model"
)

// BookingRepo persists bookings.  Validation lives in the booking service;
// the repository stores what it is given.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = "id, place_id, user_id, check_in, check_out, num_guests, name, phone, price, created_at"

// Create inserts b and fills in its ID and CreatedAt.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	var userID sql.NullInt64
	if b.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*b.UserID), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (place_id, user_id, check_in, check_out, num_guests, name, phone, price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PlaceID, userID, b.CheckIn.Time, b.CheckOut.Time, b.NumGuests, b.Name, b.Phone, b.Price)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = uint64(id)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ListByUser returns the bookings made by userID, most recent stay first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id = ? ORDER BY check_in DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	out := []*model.Booking{}
	for rows.Next() {
		var (
			b                 model.Booking
			uid               sql.NullInt64
			checkIn, checkOut time.Time
		)
		if err := rows.Scan(&b.ID, &b.PlaceID, &uid, &checkIn, &checkOut, &b.NumGuests, &b.Name, &b.Phone, &b.Price, &b.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			v := uint64(uid.Int64)
			b.UserID = &v
		}
		b.CheckIn, b.CheckOut = model.NewDate(checkIn), model.NewDate(checkOut)
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
