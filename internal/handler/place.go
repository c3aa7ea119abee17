package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/repository"
)

// PlaceStore is implemented by repository.PlaceRepo.
type PlaceStore interface {
	Create(ctx context.Context, ownerID uint64, f model.PlaceFields) (*model.Place, error)
	GetByID(ctx context.Context, id uint64) (*model.Place, error)
	List(ctx context.Context) ([]*model.Place, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Place, error)
	Update(ctx context.Context, id uint64, callerID string, f model.PlaceFields) (*model.Place, error)
}

// Purger drops cached listing responses after a write.
type Purger interface {
	Purge(ctx context.Context) error
}

// PlaceHandler serves listing endpoints.
type PlaceHandler struct {
	Places  PlaceStore
	Cache   Purger // optional
	Timeout time.Duration
	Log     logging.Logger
}

func NewPlaceHandler(places PlaceStore, cache Purger, timeout time.Duration, log logging.Logger) *PlaceHandler {
	if places == nil || log == nil {
		panic("nil dependency passed to NewPlaceHandler")
	}
	return &PlaceHandler{Places: places, Cache: cache, Timeout: timeout, Log: log}
}

// placeRef accepts an id sent either as a JSON string or a number.
type placeRef string

func (r *placeRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = placeRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = placeRef(n.String())
	return nil
}

type updatePlaceReq struct {
	ID placeRef `json:"id"`
	model.PlaceFields
}

// owner returns the signed-in caller's numeric id.  RequireAuth runs
// first, so a failure here means the token carried a foreign id format.
func owner(c echo.Context) (uint64, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return 0, false
	}
	n, err := id.NumericID()
	return n, err == nil
}

func (h *PlaceHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		h.Log.Warn(ctx, "purge listing cache failed", "err", err)
	}
}

// AddPlace creates a listing owned by the caller.
func (h *PlaceHandler) AddPlace(c echo.Context) error {
	ownerID, ok := owner(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var f model.PlaceFields
	if err := c.Bind(&f); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return invalid(c, http.StatusUnprocessableEntity, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Places.Create(ctx, ownerID, f)
	if err != nil {
		return internal(c, h.Log, "create place failed", err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, p)
}

// ListPlaces returns every listing.  Public.
func (h *PlaceHandler) ListPlaces(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	out, err := h.Places.List(ctx)
	if err != nil {
		return internal(c, h.Log, "list places failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// UserPlaces returns the caller's listings only.
func (h *PlaceHandler) UserPlaces(c echo.Context) error {
	ownerID, ok := owner(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	out, err := h.Places.ListByOwner(ctx, ownerID)
	if err != nil {
		return internal(c, h.Log, "list user places failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetPlace returns one listing.  An id that is not a number cannot exist.
func (h *PlaceHandler) GetPlace(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusNotFound, "place not found")
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Places.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPlaceNotFound) {
		return fail(c, http.StatusNotFound, "place not found")
	}
	if err != nil {
		return internal(c, h.Log, "get place failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdatePlace replaces every editable field of the listing named by the
// body's id.  Only the owner may do so.
func (h *PlaceHandler) UpdatePlace(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req updatePlaceReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.ID == "" {
		return invalid(c, http.StatusUnprocessableEntity, &model.ValidationError{Problems: []string{"id is required"}})
	}
	id, err := strconv.ParseUint(string(req.ID), 10, 64)
	if err != nil {
		return fail(c, http.StatusNotFound, "place not found")
	}
	f := req.PlaceFields.Normalize()
	if err := f.Validate(); err != nil {
		return invalid(c, http.StatusUnprocessableEntity, err)
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Places.Update(ctx, id, ident.UserID, f)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrPlaceNotFound):
		return fail(c, http.StatusNotFound, "place not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "forbidden")
	default:
		return internal(c, h.Log, "update place failed", err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, p)
}
