// Package queue defines the booking event payload and the consumer that
// records each booking in a log file.
package queue

// BookingQueue is the durable queue booking events are routed to.
const BookingQueue = "booking.created"

// BookingCreatedEvent is published after a booking is stored.  It carries
// enough context for downstream consumers to log or notify without
// querying the primary database.
type BookingCreatedEvent struct {
	BookingID  uint64  `json:"booking_id"`
	PlaceID    uint64  `json:"place_id"`
	PlaceTitle string  `json:"place_title"`
	OwnerID    uint64  `json:"owner_id"`
	GuestID    *uint64 `json:"guest_id,omitempty"`
	GuestName  string  `json:"guest_name"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	NumGuests  int     `json:"num_guests"`
	Price      float64 `json:"price"`
	CreatedAt  string  `json:"created_at"`
}
