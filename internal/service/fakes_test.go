package service

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/queue"
	"github.com/iliyamo/stayhub/internal/repository"
)

// memUsers is an in-memory UserStore enforcing email uniqueness.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, name, email, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	m.byID[m.nextID] = model.User{ID: m.nextID, Name: name, Email: email, PasswordHash: hash}
	return m.nextID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type memPlaces map[uint64]*model.Place

func (m memPlaces) GetByID(_ context.Context, id uint64) (*model.Place, error) {
	p, ok := m[id]
	if !ok {
		return nil, repository.ErrPlaceNotFound
	}
	return p, nil
}

type memBookings struct {
	created []*model.Booking
	err     error
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	if m.err != nil {
		return m.err
	}
	b.ID = uint64(len(m.created) + 1)
	m.created = append(m.created, b)
	return nil
}

func (m *memBookings) ListByUser(_ context.Context, userID uint64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.created {
		if b.UserID != nil && *b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []queue.BookingCreatedEvent
	fail    bool
	release chan struct{} // when set, publishing blocks until closed
}

func (r *recordingPublisher) PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.fail {
		return errors.New("broker unavailable")
	}
	return nil
}
