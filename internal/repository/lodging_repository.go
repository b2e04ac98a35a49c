package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/OSU-CS493-Sp18/mongodb/internal/model"
)

// lodgingColumns is the projection shared by every SELECT.  A NULL
// description is read back as an empty string.
const lodgingColumns = `id, name, COALESCE(description, '') AS description, street, city, state, zip, price, ownerid`

// LodgingRepo encapsulates all queries against the lodgings table.
type LodgingRepo struct {
	db *sqlx.DB
}

// NewLodgingRepo constructs a LodgingRepo with the provided pool.
func NewLodgingRepo(db *sqlx.DB) *LodgingRepo {
	return &LodgingRepo{db: db}
}

// Count returns the number of lodging rows.
func (r *LodgingRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) AS count FROM lodgings`); err != nil {
		return 0, err
	}
	return n, nil
}

// ListPage returns at most limit rows ordered by id, skipping offset rows.
func (r *LodgingRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Lodging, error) {
	out := []model.Lodging{}
	const q = `SELECT ` + lodgingColumns + ` FROM lodgings ORDER BY id LIMIT ?, ?`
	if err := r.db.SelectContext(ctx, &out, q, offset, limit); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a lodging and returns the id assigned by MySQL.  An
// empty description is stored as NULL.
func (r *LodgingRepo) Create(ctx context.Context, in model.LodgingInput) (int64, error) {
	const q = `INSERT INTO lodgings (name, description, street, city, state, zip, price, ownerid)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		in.Name, nullable(in.Description), in.Street, in.City, in.State, in.Zip, in.Price, in.OwnerID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID fetches a single lodging.  It returns ErrLodgingNotFound if no
// row has that id.
func (r *LodgingRepo) GetByID(ctx context.Context, id int64) (*model.Lodging, error) {
	var l model.Lodging
	const q = `SELECT ` + lodgingColumns + ` FROM lodgings WHERE id = ?`
	if err := r.db.GetContext(ctx, &l, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLodgingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Update overwrites every column except id.  The boolean reports whether
// a row with that id existed.
func (r *LodgingRepo) Update(ctx context.Context, id int64, in model.LodgingInput) (bool, error) {
	const q = `UPDATE lodgings
	           SET name = ?, description = ?, street = ?, city = ?, state = ?, zip = ?, price = ?, ownerid = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		in.Name, nullable(in.Description), in.Street, in.City, in.State, in.Zip, in.Price, in.OwnerID, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// Delete removes a lodging.  The boolean reports whether a row was removed.
func (r *LodgingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lodgings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// ListByOwner returns every lodging whose ownerid column equals ownerID,
// ordered by id.
func (r *LodgingRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Lodging, error) {
	out := []model.Lodging{}
	const q = `SELECT ` + lodgingColumns + ` FROM lodgings WHERE ownerid = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &out, q, ownerID); err != nil {
		return nil, err
	}
	return out, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
