package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/queue"
	"github.com/iliyamo/stayhub/internal/repository"
)

// PlaceLookup resolves the listing a booking refers to.
type PlaceLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Place, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error)
}

// EventPublisher delivers booking events.  Failures never fail a booking.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// BookingService validates and stores bookings.
type BookingService struct {
	places    PlaceLookup
	bookings  BookingStore
	publisher EventPublisher // optional
	log       logging.Logger

	pending sync.WaitGroup // in-flight publishes
}

// publishTimeout bounds one background publish, dial included.
const publishTimeout = 5 * time.Second

func NewBookingService(places PlaceLookup, bookings BookingStore, publisher EventPublisher, log logging.Logger) *BookingService {
	if places == nil || bookings == nil || log == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{places: places, bookings: bookings, publisher: publisher, log: log}
}

// Create validates f against the referenced listing and stores the booking.
// guestID is the authenticated caller, if any.  Every client mistake comes
// back as *ValidationError.
func (s *BookingService) Create(ctx context.Context, guestID *uint64, f model.BookingFields) (*model.Booking, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)

	ve := &ValidationError{}
	if f.PlaceID == 0 {
		ve.add("place is required")
	}
	if f.CheckIn.IsZero() || f.CheckOut.IsZero() {
		ve.add("checkIn and checkOut are required")
	} else if !f.CheckIn.Before(f.CheckOut.Time) {
		ve.add("checkIn must be before checkOut")
	}
	if f.NumGuests < 1 {
		ve.add("numGuests must be at least 1")
	}
	if f.Name == "" {
		ve.add("name is required")
	}
	if f.Phone == "" {
		ve.add("phone is required")
	}
	if f.Price < 0 {
		ve.add("price must not be negative")
	}
	if len(ve.Problems) > 0 {
		return nil, ve
	}

	place, err := s.places.GetByID(ctx, f.PlaceID)
	if errors.Is(err, repository.ErrPlaceNotFound) {
		return nil, &ValidationError{Problems: []string{"place not found"}}
	}
	if err != nil {
		return nil, fmt.Errorf("load place: %w", err)
	}
	if f.NumGuests > place.MaxGuests {
		return nil, &ValidationError{Problems: []string{
			fmt.Sprintf("numGuests exceeds the maximum of %d for this place", place.MaxGuests),
		}}
	}

	price := f.Price
	if price == 0 {
		price = float64(f.Nights()) * place.Price
	}
	b := &model.Booking{
		PlaceID:   place.ID,
		UserID:    guestID,
		CheckIn:   f.CheckIn,
		CheckOut:  f.CheckOut,
		NumGuests: f.NumGuests,
		Name:      f.Name,
		Phone:     f.Phone,
		Price:     price,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, place, b)
	return b, nil
}

// ListForGuest returns the bookings the user made while signed in.
func (s *BookingService) ListForGuest(ctx context.Context, guestID uint64) ([]*model.Booking, error) {
	return s.bookings.ListByUser(ctx, guestID)
}

func (s *BookingService) publish(ctx context.Context, place *model.Place, b *model.Booking) {
	if s.publisher == nil {
		return
	}
	ev := queue.BookingCreatedEvent{
		BookingID:  b.ID,
		PlaceID:    place.ID,
		PlaceTitle: place.Title,
		OwnerID:    place.OwnerID,
		GuestID:    b.UserID,
		GuestName:  b.Name,
		CheckIn:    b.CheckIn.Format("2006-01-02"),
		CheckOut:   b.CheckOut.Format("2006-01-02"),
		NumGuests:  b.NumGuests,
		Price:      b.Price,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	// Publish off the request path; the request context ends with the response.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.publisher.PublishBookingCreated(pubCtx, ev); err != nil {
			s.log.Warn(pubCtx, "publish booking event failed", "booking_id", ev.BookingID, "err", err)
		}
	}()
}

// Wait blocks until every background publish has finished.  Call it on
// shutdown after the HTTP server has stopped accepting requests.
func (s *BookingService) Wait() {
	s.pending.Wait()
}
