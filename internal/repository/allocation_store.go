package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/student-housing/internal/allocation"
    "github.com/iliyamo/student-housing/internal/model"
)

// AllocationStore adapts the SQL repositories to the allocation
// engine's persistence gateway.  It owns transaction demarcation: the
// engine decides what happens inside a transaction, this type decides
// how one is opened, committed and rolled back.
type AllocationStore struct {
    db         *sql.DB
    properties *PropertyRepo
    occupants  *OccupantRepo
}

// NewAllocationStore wires the store over the shared repositories.
func NewAllocationStore(db *sql.DB, properties *PropertyRepo, occupants *OccupantRepo) *AllocationStore {
    return &AllocationStore{db: db, properties: properties, occupants: occupants}
}

// FindProperty implements allocation.Store.
func (s *AllocationStore) FindProperty(ctx context.Context, id uint64) (*model.Property, error) {
    p, err := s.properties.GetByID(ctx, id)
    if errors.Is(err, ErrPropertyNotFound) {
        return nil, fmt.Errorf("property %d: %w", id, allocation.ErrRecordNotFound)
    }
    return p, err
}

// ActiveOccupants implements allocation.Store.
func (s *AllocationStore) ActiveOccupants(ctx context.Context, propertyID uint64) ([]model.Occupant, error) {
    return s.occupants.ActiveByProperty(ctx, propertyID)
}

// InTransaction implements allocation.Store.  fn runs against a
// TxStore bound to a single database transaction; a nil return
// commits, anything else rolls back.
func (s *AllocationStore) InTransaction(ctx context.Context, fn func(tx allocation.TxStore) error) error {
    dbTx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = dbTx.Rollback()
        }
    }()
    if err := fn(&allocationTx{tx: dbTx, store: s}); err != nil {
        return err
    }
    if err := dbTx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// allocationTx implements allocation.TxStore over one *sql.Tx.
type allocationTx struct {
    tx    *sql.Tx
    store *AllocationStore
}

func (t *allocationTx) LockProperty(ctx context.Context, id uint64) (*model.Property, error) {
    p, err := t.store.properties.LockTx(ctx, t.tx, id)
    if errors.Is(err, ErrPropertyNotFound) {
        return nil, fmt.Errorf("property %d: %w", id, allocation.ErrRecordNotFound)
    }
    return p, err
}

func (t *allocationTx) ActiveOccupants(ctx context.Context, propertyID uint64) ([]model.Occupant, error) {
    return t.store.occupants.ActiveByPropertyTx(ctx, t.tx, propertyID)
}

func (t *allocationTx) InsertOccupant(ctx context.Context, o *model.Occupant) error {
    return t.store.occupants.InsertTx(ctx, t.tx, o)
}

func (t *allocationTx) ReleaseOccupant(ctx context.Context, occupantID uint64, endDate time.Time) error {
    err := t.store.occupants.ReleaseTx(ctx, t.tx, occupantID, endDate)
    if errors.Is(err, sql.ErrNoRows) {
        return fmt.Errorf("occupant %d: %w", occupantID, allocation.ErrRecordNotFound)
    }
    return err
}

func (t *allocationTx) UpdatePropertyOccupancy(ctx context.Context, propertyID uint64, currentOccupants uint32, status string) error {
    return t.store.properties.UpdateOccupancyTx(ctx, t.tx, propertyID, currentOccupants, status)
}

// UserDirectory adapts UserRepo to allocation.UserLookup.
type UserDirectory struct {
    users *UserRepo
}

// NewUserDirectory wraps the user repository for the engine.
func NewUserDirectory(users *UserRepo) *UserDirectory { return &UserDirectory{users: users} }

// GetUser implements allocation.UserLookup, translating sql.ErrNoRows
// into the engine's not-found sentinel.
func (d *UserDirectory) GetUser(ctx context.Context, id uint64) (*model.User, error) {
    u, err := d.users.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, fmt.Errorf("user %d: %w", id, allocation.ErrRecordNotFound)
    }
    if err != nil {
        return nil, err
    }
    return &u, nil
}
