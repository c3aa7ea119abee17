package repository

// This file defines the listing store.  A place belongs to exactly one
// owner; reads are public while every write re-checks ownership inside a
// transaction so that the check and the update see the same row.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/iliyamo/stayhub/internal/model"
)

// PlaceRepo encapsulates all database queries related to listings.
type PlaceRepo struct {
	DB *sql.DB
}

func NewPlaceRepo(db *sql.DB) *PlaceRepo {
	return &PlaceRepo{DB: db}
}

const placeColumns = `id, owner_id, title, address, description, photos, perks, extra_info,
	check_in, check_out, max_guests, price, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(s rowScanner) (*model.Place, error) {
	var (
		p             model.Place
		photos, perks []byte
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Address, &p.Description, &photos, &perks,
		&p.ExtraInfo, &p.CheckIn, &p.CheckOut, &p.MaxGuests, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeList(photos, &p.Photos); err != nil {
		return nil, fmt.Errorf("decode photos of place %d: %w", p.ID, err)
	}
	if err := decodeList(perks, &p.Perks); err != nil {
		return nil, fmt.Errorf("decode perks of place %d: %w", p.ID, err)
	}
	return &p, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

// Create inserts a new listing owned by ownerID and returns the stored row.
// Fields are expected to be normalized and validated already.
func (r *PlaceRepo) Create(ctx context.Context, ownerID uint64, f model.PlaceFields) (*model.Place, error) {
	photos, err := encodeList(f.Photos)
	if err != nil {
		return nil, err
	}
	perks, err := encodeList(f.Perks)
	if err != nil {
		return nil, err
	}
	const qInsert = `INSERT INTO places
		(owner_id, title, address, description, photos, perks, extra_info, check_in, check_out, max_guests, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, qInsert, ownerID, f.Title, f.Address, f.Description, photos, perks,
		f.ExtraInfo, f.CheckIn, f.CheckOut, f.MaxGuests, f.Price)
	if err != nil {
		return nil, fmt.Errorf("insert place: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert place: %w", err)
	}
	// Follow-up SELECT populates the timestamps the database assigned.
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a listing regardless of owner.
func (r *PlaceRepo) GetByID(ctx context.Context, id uint64) (*model.Place, error) {
	p, err := scanPlace(r.DB.QueryRowContext(ctx, "SELECT "+placeColumns+" FROM places WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select place: %w", err)
	}
	return p, nil
}

// List returns every listing ordered by id.
func (r *PlaceRepo) List(ctx context.Context) ([]*model.Place, error) {
	return r.query(ctx, "SELECT "+placeColumns+" FROM places ORDER BY id")
}

// ListByOwner returns only the listings whose owner is ownerID.
func (r *PlaceRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Place, error) {
	return r.query(ctx, "SELECT "+placeColumns+" FROM places WHERE owner_id = ? ORDER BY id", ownerID)
}

func (r *PlaceRepo) query(ctx context.Context, q string, args ...any) ([]*model.Place, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select places: %w", err)
	}
	defer rows.Close()

	out := []*model.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of listing id on behalf of callerID.
// The stored owner is locked and compared with the caller in the same
// transaction as the write.  ErrPlaceNotFound is returned when the listing
// does not exist and ErrForbidden when the caller is not its owner; in both
// cases nothing is written.
func (r *PlaceRepo) Update(ctx context.Context, id uint64, callerID string, f model.PlaceFields) (_ *model.Place, err error) {
	photos, err := encodeList(f.Photos)
	if err != nil {
		return nil, err
	}
	perks, err := encodeList(f.Perks)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	if err = tx.QueryRowContext(ctx, "SELECT owner_id FROM places WHERE id = ? FOR UPDATE", id).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("lock place: %w", err)
	}
	// Token claims carry the id as a string; compare in that representation.
	if strconv.FormatUint(ownerID, 10) != callerID {
		return nil, ErrForbidden
	}

	const qUpdate = `UPDATE places
		SET title = ?, address = ?, description = ?, photos = ?, perks = ?, extra_info = ?,
		    check_in = ?, check_out = ?, max_guests = ?, price = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err = tx.ExecContext(ctx, qUpdate, f.Title, f.Address, f.Description, photos, perks, f.ExtraInfo,
		f.CheckIn, f.CheckOut, f.MaxGuests, f.Price, id); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}

	p, err := scanPlace(tx.QueryRowContext(ctx, "SELECT "+placeColumns+" FROM places WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reload place: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}
