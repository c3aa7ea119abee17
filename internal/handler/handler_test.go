package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/utils"
)

// harness serves requests through Session so handlers see a real identity.
type harness struct {
	t      *testing.T
	e      *echo.Echo
	tokens *utils.SessionTokens
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := utils.NewSessionTokens("handler-test-secret", 0)
	require.NoError(t, err)
	e := echo.New()
	e.Use(middleware.Session("token", tokens))
	return &harness{t: t, e: e, tokens: tokens}
}

// do sends body as JSON.  A non-empty userID signs the request in.
func (h *harness) do(method, path, body, userID string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		tok, err := h.tokens.Issue(utils.SessionClaims{UserID: userID, Email: "user" + userID + "@x.com"})
		require.NoError(h.t, err)
		req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type stubAccounts struct {
	register func(name, email, password string) (*model.User, error)
	login    func(email, password string) (*model.User, string, error)
	profile  func(userID string) (*model.User, error)
}

func (s *stubAccounts) Register(_ context.Context, name, email, password string) (*model.User, error) {
	return s.register(name, email, password)
}

func (s *stubAccounts) Login(_ context.Context, email, password string) (*model.User, string, error) {
	return s.login(email, password)
}

func (s *stubAccounts) Profile(_ context.Context, userID string) (*model.User, error) {
	return s.profile(userID)
}

type stubPlaces struct {
	create      func(ownerID uint64, f model.PlaceFields) (*model.Place, error)
	get         func(id uint64) (*model.Place, error)
	list        func() ([]*model.Place, error)
	listByOwner func(ownerID uint64) ([]*model.Place, error)
	update      func(id uint64, callerID string, f model.PlaceFields) (*model.Place, error)
}

func (s *stubPlaces) Create(_ context.Context, ownerID uint64, f model.PlaceFields) (*model.Place, error) {
	return s.create(ownerID, f)
}

func (s *stubPlaces) GetByID(_ context.Context, id uint64) (*model.Place, error) {
	return s.get(id)
}

func (s *stubPlaces) List(context.Context) ([]*model.Place, error) {
	return s.list()
}

func (s *stubPlaces) ListByOwner(_ context.Context, ownerID uint64) ([]*model.Place, error) {
	return s.listByOwner(ownerID)
}

func (s *stubPlaces) Update(_ context.Context, id uint64, callerID string, f model.PlaceFields) (*model.Place, error) {
	return s.update(id, callerID, f)
}

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error {
	p.n++
	return nil
}

type stubBookings struct {
	create func(guestID *uint64, f model.BookingFields) (*model.Booking, error)
	list   func(guestID uint64) ([]*model.Booking, error)
}

func (s *stubBookings) Create(_ context.Context, guestID *uint64, f model.BookingFields) (*model.Booking, error) {
	return s.create(guestID, f)
}

func (s *stubBookings) ListForGuest(_ context.Context, guestID uint64) ([]*model.Booking, error) {
	return s.list(guestID)
}

// applyFields copies f onto p the way a store update would.
func applyFields(p *model.Place, f model.PlaceFields) {
	p.Title, p.Address, p.Description = f.Title, f.Address, f.Description
	p.Photos, p.Perks, p.ExtraInfo = f.Photos, f.Perks, f.ExtraInfo
	p.CheckIn, p.CheckOut = f.CheckIn, f.CheckOut
	p.MaxGuests, p.Price = f.MaxGuests, f.Price
}
