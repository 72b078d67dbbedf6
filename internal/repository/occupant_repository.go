package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/student-housing/internal/model"
)

// OccupantRepo provides access to the 'occupants' table.  Rows are
// append-only: a release flips status to INACTIVE and sets end_date,
// leaving the tenancy history intact.  All timestamp fields are
// stored in UTC.
type OccupantRepo struct {
    db *sql.DB
}

// NewOccupantRepo returns a new OccupantRepo bound to the given database.
func NewOccupantRepo(db *sql.DB) *OccupantRepo { return &OccupantRepo{db: db} }

const occupantColumns = `id, property_id, user_id, room_number, status, start_date, end_date,
        total_price_cents, created_at, updated_at`

func scanOccupant(row interface{ Scan(dest ...interface{}) error }) (*model.Occupant, error) {
    var o model.Occupant
    var end sql.NullTime
    err := row.Scan(
        &o.ID, &o.PropertyID, &o.UserID, &o.RoomNumber, &o.Status,
        &o.StartDate, &end, &o.TotalPriceCents, &o.CreatedAt, &o.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if end.Valid {
        t := end.Time
        o.EndDate = &t
    }
    return &o, nil
}

// ActiveByProperty returns all ACTIVE occupancy records for a
// property ordered by start date ascending, so the first occupant of
// a room is the one who moved in first.
func (r *OccupantRepo) ActiveByProperty(ctx context.Context, propertyID uint64) ([]model.Occupant, error) {
    return r.activeByProperty(ctx, r.db.QueryContext, propertyID)
}

// ActiveByPropertyTx is ActiveByProperty within a transaction.
func (r *OccupantRepo) ActiveByPropertyTx(ctx context.Context, tx *sql.Tx, propertyID uint64) ([]model.Occupant, error) {
    return r.activeByProperty(ctx, tx.QueryContext, propertyID)
}

type queryFunc func(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

func (r *OccupantRepo) activeByProperty(ctx context.Context, query queryFunc, propertyID uint64) ([]model.Occupant, error) {
    const q = `SELECT ` + occupantColumns + `
               FROM occupants
               WHERE property_id = ? AND status = 'ACTIVE'
               ORDER BY start_date ASC, id ASC`
    rows, err := query(ctx, q, propertyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Occupant, 0)
    for rows.Next() {
        o, err := scanOccupant(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// InsertTx creates a new ACTIVE occupancy record within the provided
// transaction and populates the generated ID on the struct.  The
// caller must commit or roll back the transaction.
func (r *OccupantRepo) InsertTx(ctx context.Context, tx *sql.Tx, o *model.Occupant) error {
    const q = `INSERT INTO occupants
               (property_id, user_id, room_number, status, start_date, total_price_cents)
               VALUES (?,?,?,?,?,?)`
    res, err := tx.ExecContext(ctx, q,
        o.PropertyID, o.UserID, o.RoomNumber, o.Status,
        o.StartDate.UTC().Format("2006-01-02 15:04:05"), o.TotalPriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    return nil
}

// ReleaseTx flips an occupancy record to INACTIVE and records the end
// date, within the provided transaction.  Already released records
// are left alone.
func (r *OccupantRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, occupantID uint64, endDate time.Time) error {
    const q = `UPDATE occupants SET status = 'INACTIVE', end_date = ?
               WHERE id = ? AND status = 'ACTIVE'`
    res, err := tx.ExecContext(ctx, q, endDate.UTC().Format("2006-01-02 15:04:05"), occupantID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// OccupantDetail joins an occupancy record with the student behind it
// for display on the landlord's occupant listing.
type OccupantDetail struct {
    ID              uint64     `json:"id"`
    UserID          uint64     `json:"user_id"`
    StudentName     string     `json:"student_name"`
    StudentEmail    string     `json:"student_email"`
    RoomNumber      uint32     `json:"room_number"`
    Status          string     `json:"status"`
    StartDate       time.Time  `json:"start_date"`
    EndDate         *time.Time `json:"end_date,omitempty"`
    TotalPriceCents uint32     `json:"total_price_cents"`
}

// ListDetailsByProperty returns all occupancy records (active and
// historical) for a property joined with student identity, verifying
// that the caller owns the property.  Returns ErrPropertyNotFound or
// ErrForbidden when the ownership check fails.
func (r *OccupantRepo) ListDetailsByProperty(ctx context.Context, propertyID, landlordID uint64) ([]OccupantDetail, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT landlord_id FROM properties WHERE id = ?`, propertyID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return nil, ErrPropertyNotFound
    }
    if err != nil {
        return nil, err
    }
    if ownerID != landlordID {
        return nil, ErrForbidden
    }
    const q = `SELECT o.id, o.user_id, u.name, u.email, o.room_number, o.status,
                      o.start_date, o.end_date, o.total_price_cents
               FROM occupants o
               JOIN users u ON u.id = o.user_id
               WHERE o.property_id = ?
               ORDER BY o.status ASC, o.room_number ASC, o.start_date ASC`
    rows, err := r.db.QueryContext(ctx, q, propertyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]OccupantDetail, 0)
    for rows.Next() {
        var d OccupantDetail
        var end sql.NullTime
        if err := rows.Scan(&d.ID, &d.UserID, &d.StudentName, &d.StudentEmail,
            &d.RoomNumber, &d.Status, &d.StartDate, &end, &d.TotalPriceCents); err != nil {
            return nil, err
        }
        if end.Valid {
            t := end.Time
            d.EndDate = &t
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// HasEverOccupied reports whether the user holds or ever held an
// occupancy on the property.  Used to gate review creation.
func (r *OccupantRepo) HasEverOccupied(ctx context.Context, propertyID, userID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM occupants WHERE property_id = ? AND user_id = ?`,
        propertyID, userID).Scan(&n)
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
