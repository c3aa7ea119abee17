package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stayhub/internal/config"
	"github.com/iliyamo/stayhub/internal/handler"
	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/repository"
	"github.com/iliyamo/stayhub/internal/service"
	"github.com/iliyamo/stayhub/internal/utils"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[uint64]model.User
}

func (m *memUsers) Create(_ context.Context, name, email, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	id := uint64(len(m.byID) + 1)
	m.byID[id] = model.User{ID: id, Name: name, Email: email, PasswordHash: hash}
	return id, nil
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

// memPlaces mirrors PlaceRepo, including the ownership check on update.
type memPlaces struct {
	mu   sync.Mutex
	byID map[uint64]*model.Place
}

func (m *memPlaces) Create(_ context.Context, ownerID uint64, f model.PlaceFields) (*model.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Place{ID: uint64(len(m.byID) + 1), OwnerID: ownerID}
	applyFields(p, f)
	m.byID[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memPlaces) GetByID(_ context.Context, id uint64) (*model.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrPlaceNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlaces) List(context.Context) ([]*model.Place, error) {
	return m.filter(func(*model.Place) bool { return true }), nil
}

func (m *memPlaces) ListByOwner(_ context.Context, ownerID uint64) ([]*model.Place, error) {
	return m.filter(func(p *model.Place) bool { return p.OwnerID == ownerID }), nil
}

func (m *memPlaces) filter(keep func(*model.Place) bool) []*model.Place {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Place{}
	for id := uint64(1); id <= uint64(len(m.byID)); id++ {
		if p := m.byID[id]; keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memPlaces) Update(_ context.Context, id uint64, callerID string, f model.PlaceFields) (*model.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrPlaceNotFound
	}
	if strconv.FormatUint(p.OwnerID, 10) != callerID {
		return nil, repository.ErrForbidden
	}
	applyFields(p, f)
	cp := *p
	return &cp, nil
}

type memBookings struct {
	mu  sync.Mutex
	all []*model.Booking
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint64(len(m.all) + 1)
	b.CreatedAt = time.Now().UTC()
	m.all = append(m.all, b)
	return nil
}

func (m *memBookings) ListByUser(_ context.Context, userID uint64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range m.all {
		if b.UserID != nil && *b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// newServer wires the full route table over in-memory stores.
func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		CookieName:     "token",
		CORSOrigin:     "http://localhost:5173",
		BcryptCost:     4,
		RequestTimeout: time.Second,
	}
	log := logging.NewJSON(io.Discard, cfg.Env)
	tokens, err := utils.NewSessionTokens("router-test-secret", 0)
	require.NoError(t, err)

	places := &memPlaces{byID: map[uint64]*model.Place{}}
	accounts := service.NewAccountService(&memUsers{byID: map[uint64]model.User{}}, tokens, cfg.BcryptCost)
	bookings := service.NewBookingService(places, &memBookings{}, nil, logging.Nop())

	e := New(cfg, log, tokens)
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, log),
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil, log))
	RegisterPlaces(e, handler.NewPlaceHandler(places, middleware.NewCachePurger(nil, "p"), cfg.RequestTimeout, log),
		middleware.NewRedisCache(config.CacheConfig{}, nil, log))
	RegisterBookings(e, handler.NewBookingHandler(bookings, cfg.RequestTimeout, log))
	return e
}

type client struct {
	t      *testing.T
	e      *echo.Echo
	cookie *http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func (c *client) login(email, password string) *httptest.ResponseRecorder {
	rec := c.do(http.MethodPost, "/login", `{"email":"`+email+`","password":"`+password+`"}`)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" {
			c.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAliceScenario(t *testing.T) {
	e := newServer(t)
	alice := &client{t: t, e: e}

	rec := alice.do(http.MethodPost, "/register", `{"name":"Alice","email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["_id"]

	rec = alice.do(http.MethodPost, "/register", `{"name":"Alice again","email":"A@x.com","password":"pw2"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = alice.login("a@x.com", "pw1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, alice.cookie)

	rec = alice.do(http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"name": "Alice", "email": "a@x.com", "_id": id}, decode(t, rec))

	stranger := &client{t: t, e: e}
	rec = stranger.login("a@x.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, stranger.cookie)

	rec = stranger.login("nobody@x.com", "pw1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListingOwnershipAndBooking(t *testing.T) {
	e := newServer(t)
	owner := &client{t: t, e: e}
	guest := &client{t: t, e: e}

	require.Equal(t, http.StatusCreated,
		owner.do(http.MethodPost, "/register", `{"name":"Olga","email":"o@x.com","password":"pw"}`).Code)
	require.Equal(t, http.StatusCreated,
		guest.do(http.MethodPost, "/register", `{"name":"Gus","email":"g@x.com","password":"pw"}`).Code)
	owner.login("o@x.com", "pw")
	guest.login("g@x.com", "pw")

	rec := owner.do(http.MethodPost, "/add-place",
		`{"title":"Cabin","address":"1 Lake Rd","checkIn":14,"checkOut":11,"maxGuests":2,"price":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placeID := decode(t, rec)["_id"].(string)

	rec = guest.do(http.MethodPut, "/places",
		`{"id":"`+placeID+`","title":"Mine now","address":"1 Lake Rd","maxGuests":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = owner.do(http.MethodPut, "/places",
		`{"id":"`+placeID+`","title":"Renovated cabin","address":"1 Lake Rd","maxGuests":3,"price":150}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = guest.do(http.MethodGet, "/places/"+placeID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renovated cabin", decode(t, rec)["title"])

	rec = guest.do(http.MethodGet, "/user-places", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = guest.do(http.MethodPost, "/booking",
		`{"place":"`+placeID+`","checkIn":"2026-07-01","checkOut":"2026-07-03","numGuests":3,"name":"Gus","phone":"555"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 300.0, decode(t, rec)["price"])

	rec = guest.do(http.MethodPost, "/booking",
		`{"place":"`+placeID+`","checkIn":"2026-07-01","checkOut":"2026-07-03","numGuests":4,"name":"Gus","phone":"555"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = guest.do(http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	anon := &client{t: t, e: e}
	rec = anon.do(http.MethodPost, "/booking",
		`{"place":"`+placeID+`","checkIn":"2026-08-01","checkOut":"2026-08-02","numGuests":1,"name":"Ann","phone":"1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInvalidTokenIs401EvenOnPublicRoutes(t *testing.T) {
	e := newServer(t)
	c := &client{t: t, e: e, cookie: &http.Cookie{Name: "token", Value: "forged"}}

	rec := c.do(http.MethodGet, "/places", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid session token"}`, rec.Body.String())
}

func TestLogoutThenProfile(t *testing.T) {
	e := newServer(t)
	c := &client{t: t, e: e}
	c.do(http.MethodPost, "/register", `{"name":"Alice","email":"a@x.com","password":"pw1"}`)
	c.login("a@x.com", "pw1")

	rec := c.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c.cookie = nil // the browser drops the expired cookie

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/profile", "").Code)
}

func TestCORSAndRequestID(t *testing.T) {
	e := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

// applyFields copies f onto p the way a store update would.
func applyFields(p *model.Place, f model.PlaceFields) {
	p.Title, p.Address, p.Description = f.Title, f.Address, f.Description
	p.Photos, p.Perks, p.ExtraInfo = f.Photos, f.Perks, f.ExtraInfo
	p.CheckIn, p.CheckOut = f.CheckIn, f.CheckOut
	p.MaxGuests, p.Price = f.MaxGuests, f.Price
}

func TestStaleCookieDoesNotBlockLoginOrLogout(t *testing.T) {
	e := newServer(t)
	c := &client{t: t, e: e}
	require.Equal(t, http.StatusCreated,
		c.do(http.MethodPost, "/register", `{"name":"Alice","email":"a@x.com","password":"pw1"}`).Code)

	// A token signed before the secret rotated.
	c.cookie = &http.Cookie{Name: "token", Value: "signed.with.old-secret"}

	rec := c.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "true", rec.Body.String())

	rec = c.login("a@x.com", "pw1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEqual(t, "signed.with.old-secret", c.cookie.Value)

	rec = c.do(http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaleCookieOnOtherRoutesIsCleared(t *testing.T) {
	e := newServer(t)
	c := &client{t: t, e: e, cookie: &http.Cookie{Name: "token", Value: "signed.with.old-secret"}}

	rec := c.do(http.MethodGet, "/places", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var cleared *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}
