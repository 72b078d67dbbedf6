package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/student-housing/internal/model"
)

// PropertyRepo provides CRUD operations for rental properties.  The
// occupancy counter and status columns are only mutated through the
// ...Tx methods so that they stay consistent with the occupants table;
// Update deliberately leaves them untouched.
type PropertyRepo struct {
    db *sql.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *PropertyRepo) DB() *sql.DB { return r.db }

const propertyColumns = `id, landlord_id, title, location, description, price_per_room_cents,
        bedrooms, room_sharing, tenants_per_room, current_occupants, status, gender, religion,
        created_at, updated_at`

func scanProperty(row interface{ Scan(dest ...interface{}) error }) (*model.Property, error) {
    var p model.Property
    var desc sql.NullString
    err := row.Scan(
        &p.ID, &p.LandlordID, &p.Title, &p.Location, &desc, &p.PricePerRoomCents,
        &p.Bedrooms, &p.RoomSharing, &p.TenantsPerRoom, &p.CurrentOccupants,
        &p.Status, &p.Gender, &p.Religion, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        p.Description = &d
    }
    return &p, nil
}

// Create inserts a new property and populates the generated ID and
// timestamps on the provided struct.  New listings start AVAILABLE
// with zero occupants regardless of what the caller set.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) error {
    const q = `INSERT INTO properties
               (landlord_id, title, location, description, price_per_room_cents,
                bedrooms, room_sharing, tenants_per_room, status, gender, religion)
               VALUES (?,?,?,?,?,?,?,?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q,
        p.LandlordID, p.Title, p.Location, p.Description, p.PricePerRoomCents,
        p.Bedrooms, p.RoomSharing, p.TenantsPerRoom, model.PropertyAvailable,
        p.Gender, p.Religion)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults.
    got, err := r.GetByID(ctx, p.ID)
    if err != nil {
        return err
    }
    *p = *got
    return nil
}

// GetByID returns a property or ErrPropertyNotFound.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
    p, err := scanProperty(r.db.QueryRowContext(ctx,
        `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPropertyNotFound
    }
    return p, err
}

// ListByLandlord returns all properties owned by the landlord, newest
// first.
func (r *PropertyRepo) ListByLandlord(ctx context.Context, landlordID uint64) ([]model.Property, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+propertyColumns+` FROM properties WHERE landlord_id = ? ORDER BY created_at DESC`,
        landlordID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectProperties(rows)
}

// PropertyFilter narrows the public browse query.  Zero values mean
// "no constraint"; Sharing uses a pointer so false can be filtered on.
type PropertyFilter struct {
    Location      string
    MaxPriceCents uint32
    Gender        string
    Religion      string
    Sharing       *bool
}

// Search returns available properties matching the filter, newest
// first.  Gender and religion filters also match listings that accept
// ANY, mirroring the compatibility semantics of the allocation rules.
func (r *PropertyRepo) Search(ctx context.Context, f PropertyFilter) ([]model.Property, error) {
    q := `SELECT ` + propertyColumns + ` FROM properties WHERE status = ?`
    args := []interface{}{model.PropertyAvailable}
    if loc := strings.TrimSpace(f.Location); loc != "" {
        q += " AND location LIKE ?"
        args = append(args, "%"+loc+"%")
    }
    if f.MaxPriceCents > 0 {
        q += " AND price_per_room_cents <= ?"
        args = append(args, f.MaxPriceCents)
    }
    if f.Gender != "" && f.Gender != model.GenderAny {
        q += " AND gender IN (?, ?)"
        args = append(args, f.Gender, model.GenderAny)
    }
    if f.Religion != "" && f.Religion != model.ReligionAny {
        q += " AND religion IN (?, ?)"
        args = append(args, f.Religion, model.ReligionAny)
    }
    if f.Sharing != nil {
        q += " AND room_sharing = ?"
        args = append(args, *f.Sharing)
    }
    q += " ORDER BY created_at DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectProperties(rows)
}

func collectProperties(rows *sql.Rows) ([]model.Property, error) {
    out := make([]model.Property, 0)
    for rows.Next() {
        p, err := scanProperty(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update rewrites the descriptive fields of a property after
// verifying ownership.  Counter and status columns are not touched
// here; they belong to the allocation transaction.  Returns
// ErrPropertyNotFound when the property does not exist and
// ErrForbidden when it belongs to another landlord.
func (r *PropertyRepo) Update(ctx context.Context, p *model.Property, landlordID uint64) error {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT landlord_id FROM properties WHERE id = ?`, p.ID).Scan(&ownerID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrPropertyNotFound
    }
    if err != nil {
        return err
    }
    if ownerID != landlordID {
        return ErrForbidden
    }
    const q = `UPDATE properties
               SET title = ?, location = ?, description = ?, price_per_room_cents = ?,
                   bedrooms = ?, room_sharing = ?, tenants_per_room = ?, gender = ?, religion = ?
               WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q,
        p.Title, p.Location, p.Description, p.PricePerRoomCents,
        p.Bedrooms, p.RoomSharing, p.TenantsPerRoom, p.Gender, p.Religion, p.ID)
    return err
}

// SetStatus lets a landlord move a property in or out of MAINTENANCE.
func (r *PropertyRepo) SetStatus(ctx context.Context, id, landlordID uint64, status string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE properties SET status = ? WHERE id = ? AND landlord_id = ?`,
        status, id, landlordID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrPropertyNotFound
    }
    return nil
}

// Delete removes a property after verifying ownership and that no
// ACTIVE occupancy exists.  Returns ErrPropertyNotFound, ErrForbidden
// or ErrConflict accordingly.
func (r *PropertyRepo) Delete(ctx context.Context, id, landlordID uint64) error {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT landlord_id FROM properties WHERE id = ?`, id).Scan(&ownerID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrPropertyNotFound
    }
    if err != nil {
        return err
    }
    if ownerID != landlordID {
        return ErrForbidden
    }
    var active int
    err = r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM occupants WHERE property_id = ? AND status = 'ACTIVE'`, id).Scan(&active)
    if err != nil {
        return err
    }
    if active > 0 {
        return ErrConflict
    }
    _, err = r.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
    return err
}

// LockTx loads a property within a transaction, taking a row lock so
// concurrent allocation requests serialize on it.
func (r *PropertyRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Property, error) {
    p, err := scanProperty(tx.QueryRowContext(ctx,
        `SELECT `+propertyColumns+` FROM properties WHERE id = ? FOR UPDATE`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPropertyNotFound
    }
    return p, err
}

// UpdateOccupancyTx rewrites the denormalized occupancy counter and
// status within the allocation transaction.
func (r *PropertyRepo) UpdateOccupancyTx(ctx context.Context, tx *sql.Tx, id uint64, currentOccupants uint32, status string) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE properties SET current_occupants = ?, status = ? WHERE id = ?`,
        currentOccupants, status, id)
    return err
}
