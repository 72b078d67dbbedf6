package allocation

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/student-housing/internal/model"
)

// Store is the read side of the persistence gateway plus the entry
// point for atomic multi-record updates.  Implementations must return
// the occupants ordered by start date ascending so "first occupant of
// a room" is well defined for compatibility checks.
type Store interface {
    // FindProperty loads a property by ID.  A missing property is
    // reported with an error satisfying IsNotFound on the
    // implementation's sentinel (repository.ErrPropertyNotFound).
    FindProperty(ctx context.Context, id uint64) (*model.Property, error)
    // ActiveOccupants returns all ACTIVE occupancy records for the
    // property, ordered by start date ascending.
    ActiveOccupants(ctx context.Context, propertyID uint64) ([]model.Occupant, error)
    // InTransaction runs fn inside a single database transaction and
    // commits when fn returns nil, rolling back otherwise.
    InTransaction(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore exposes the operations available inside a transaction.
// LockProperty must take a row lock (SELECT ... FOR UPDATE or
// equivalent) so that the re-validation performed inside the
// transaction cannot race with a concurrent writer.
type TxStore interface {
    LockProperty(ctx context.Context, id uint64) (*model.Property, error)
    ActiveOccupants(ctx context.Context, propertyID uint64) ([]model.Occupant, error)
    InsertOccupant(ctx context.Context, o *model.Occupant) error
    ReleaseOccupant(ctx context.Context, occupantID uint64, endDate time.Time) error
    UpdatePropertyOccupancy(ctx context.Context, propertyID uint64, currentOccupants uint32, status string) error
}

// UserLookup resolves user records.  The engine only reads user type,
// gender and religion; a missing user is reported with the
// implementation's not-found sentinel.
type UserLookup interface {
    GetUser(ctx context.Context, id uint64) (*model.User, error)
}

// NotificationSink receives the tenant-left event emitted after a
// successful release.  Delivery is best effort: the engine logs and
// discards errors instead of rolling back the state change.
type NotificationSink interface {
    EmitTenantLeft(ctx context.Context, ev TenantLeft) error
}

// TenantLeft carries everything a landlord notification needs without
// querying the primary database.
type TenantLeft struct {
    StudentID        uint64 `json:"student_id"`
    StudentName      string `json:"student_name"`
    PropertyID       uint64 `json:"property_id"`
    PropertyLocation string `json:"property_location"`
    RoomNumber       uint32 `json:"room_number"`
    LandlordID       uint64 `json:"landlord_id"`
}

// Policy holds the tunable business rules of the engine.  The fair
// distribution guard and the shared-room cap are policy choices, not
// laws of the domain, so they live in configuration rather than in
// the validation code.
type Policy struct {
    // FairDistribution enables the whole-property guard that rejects
    // an allocation when it would leave fewer free rooms than the
    // remaining prospective occupants need.
    FairDistribution bool
    // SharedRoomCap, when non-zero, caps the effective
    // tenants-per-room of sharing properties regardless of what the
    // listing declares.  Zero disables the cap.
    SharedRoomCap uint32
}

// DefaultPolicy returns the policy used when no configuration is
// provided: fair distribution on, no shared-room cap.
func DefaultPolicy() Policy {
    return Policy{FairDistribution: true}
}

// Engine validates and executes room assignment and release for a
// student within a property.  All mutations run inside a single
// transaction supplied by the Store; validation is performed once
// before the transaction for fast failure and repeated inside it
// against locked state, so two concurrent requests against the same
// room cannot both observe a free slot.
type Engine struct {
    store  Store
    users  UserLookup
    sink   NotificationSink
    policy Policy
    // now is swappable in tests.
    now func() time.Time
}

// NewEngine constructs an Engine.  All dependencies must be non-nil.
func NewEngine(store Store, users UserLookup, sink NotificationSink, policy Policy) *Engine {
    if store == nil || users == nil || sink == nil {
        panic("nil dependency passed to NewEngine")
    }
    return &Engine{store: store, users: users, sink: sink, policy: policy, now: func() time.Time { return time.Now().UTC() }}
}

// AllocationResult is returned by Allocate: the created occupancy
// record, the student it belongs to, the updated property and the
// occupancy summary for display.
type AllocationResult struct {
    Occupant *model.Occupant
    Student  *model.User
    Property *model.Property
    Summary  model.AllocationSummary
}

// UnallocationResult is returned by Unallocate: the released occupancy
// record and the updated property.
type UnallocationResult struct {
    Occupant *model.Occupant
    Property *model.Property
}

// Allocate assigns studentID to roomNumber within the property.  The
// caller must be the property's landlord.  Validation failures are
// returned as *Error with a rule token; success returns the created
// occupant, the updated property and an allocation summary.
func (e *Engine) Allocate(ctx context.Context, propertyID, studentID uint64, roomNumber uint32, callerID uint64) (*AllocationResult, error) {
    prop, err := e.loadProperty(ctx, propertyID)
    if err != nil {
        return nil, err
    }
    if prop.LandlordID != callerID {
        return nil, errUnauthorized(RuleNotLandlord, "only the property's landlord may allocate rooms")
    }
    student, err := e.loadStudent(ctx, studentID)
    if err != nil {
        return nil, err
    }
    active, err := e.store.ActiveOccupants(ctx, propertyID)
    if err != nil {
        return nil, errInternal(err)
    }
    // Fail fast on the pre-transaction snapshot.  The same checks run
    // again inside the transaction against locked state.
    if err := e.checkAllocate(ctx, prop, student, roomNumber, active); err != nil {
        return nil, err
    }

    var (
        created  *model.Occupant
        updated  *model.Property
        occAfter []model.Occupant
    )
    txErr := e.store.InTransaction(ctx, func(tx TxStore) error {
        locked, err := tx.LockProperty(ctx, propertyID)
        if err != nil {
            return errInternal(err)
        }
        lockedActive, err := tx.ActiveOccupants(ctx, propertyID)
        if err != nil {
            return errInternal(err)
        }
        // Re-validate under lock: a concurrent writer may have filled
        // the room between the snapshot read and this point.
        if err := e.checkAllocate(ctx, locked, student, roomNumber, lockedActive); err != nil {
            return err
        }
        now := e.now()
        occ := &model.Occupant{
            PropertyID:      propertyID,
            UserID:          studentID,
            RoomNumber:      roomNumber,
            Status:          model.OccupantActive,
            StartDate:       now,
            TotalPriceCents: locked.PricePerRoomCents,
        }
        if err := tx.InsertOccupant(ctx, occ); err != nil {
            return errInternal(err)
        }
        newCount := locked.CurrentOccupants + 1
        status := locked.Status
        if newCount >= e.maxOccupants(locked) {
            status = model.PropertyRented
        }
        if err := tx.UpdatePropertyOccupancy(ctx, propertyID, newCount, status); err != nil {
            return errInternal(err)
        }
        cp := *locked
        cp.CurrentOccupants = newCount
        cp.Status = status
        created, updated = occ, &cp
        occAfter = append(lockedActive, *occ)
        return nil
    })
    if txErr != nil {
        return nil, asEngineError(txErr)
    }
    return &AllocationResult{
        Occupant: created,
        Student:  student,
        Property: updated,
        Summary:  updated.Summarize(occAfter),
    }, nil
}

// Unallocate releases studentID's active occupancy on the property.
// The occupancy record is flipped to INACTIVE with an end date, the
// property counter is decremented (floored at zero) and the status is
// reset to AVAILABLE.  The status reset is unconditional, matching
// the long-standing product behavior even when other occupants
// remain.  A tenant-left event is emitted after commit; emission
// failure is logged, never propagated.
func (e *Engine) Unallocate(ctx context.Context, propertyID, studentID uint64, callerID uint64) (*UnallocationResult, error) {
    prop, err := e.loadProperty(ctx, propertyID)
    if err != nil {
        return nil, err
    }
    if prop.LandlordID != callerID {
        return nil, errUnauthorized(RuleNotLandlord, "only the property's landlord may release rooms")
    }
    student, err := e.users.GetUser(ctx, studentID)
    if err != nil {
        if isNotFound(err) {
            return nil, errNotFound(RuleStudentNotFound, "student not found")
        }
        return nil, errInternal(err)
    }

    var (
        released *model.Occupant
        updated  *model.Property
    )
    txErr := e.store.InTransaction(ctx, func(tx TxStore) error {
        locked, err := tx.LockProperty(ctx, propertyID)
        if err != nil {
            return errInternal(err)
        }
        active, err := tx.ActiveOccupants(ctx, propertyID)
        if err != nil {
            return errInternal(err)
        }
        var occ *model.Occupant
        for i := range active {
            if active[i].UserID == studentID {
                occ = &active[i]
                break
            }
        }
        if occ == nil {
            return errNotFound(RuleNoActiveOccupancy, "no active occupancy for this student on the property")
        }
        now := e.now()
        if err := tx.ReleaseOccupant(ctx, occ.ID, now); err != nil {
            return errInternal(err)
        }
        newCount := uint32(0)
        if locked.CurrentOccupants > 0 {
            newCount = locked.CurrentOccupants - 1
        }
        // Status always resets to AVAILABLE on release, even when
        // other rooms stay occupied.
        if err := tx.UpdatePropertyOccupancy(ctx, propertyID, newCount, model.PropertyAvailable); err != nil {
            return errInternal(err)
        }
        cp := *occ
        cp.Status = model.OccupantInactive
        cp.EndDate = &now
        pcp := *locked
        pcp.CurrentOccupants = newCount
        pcp.Status = model.PropertyAvailable
        released, updated = &cp, &pcp
        return nil
    })
    if txErr != nil {
        return nil, asEngineError(txErr)
    }

    ev := TenantLeft{
        StudentID:        studentID,
        StudentName:      student.Name,
        PropertyID:       propertyID,
        PropertyLocation: prop.Location,
        RoomNumber:       released.RoomNumber,
        LandlordID:       prop.LandlordID,
    }
    if err := e.sink.EmitTenantLeft(ctx, ev); err != nil {
        log.Printf("allocation: tenant-left notification failed for property %d: %v", propertyID, err)
    }
    return &UnallocationResult{Occupant: released, Property: updated}, nil
}

// loadProperty maps store errors into the engine taxonomy.
func (e *Engine) loadProperty(ctx context.Context, id uint64) (*model.Property, error) {
    prop, err := e.store.FindProperty(ctx, id)
    if err != nil {
        if isNotFound(err) {
            return nil, errNotFound(RulePropertyNotFound, "property not found")
        }
        return nil, errInternal(err)
    }
    return prop, nil
}

// loadStudent resolves the allocation target and verifies it is a
// student account.
func (e *Engine) loadStudent(ctx context.Context, id uint64) (*model.User, error) {
    u, err := e.users.GetUser(ctx, id)
    if err != nil {
        if isNotFound(err) {
            return nil, errNotFound(RuleStudentNotFound, "student not found")
        }
        return nil, errInternal(err)
    }
    if u.UserType != model.UserTypeStudent {
        return nil, errInvalidArgument(RuleNotAStudent, "allocations can only target student accounts")
    }
    return u, nil
}

// asEngineError keeps *Error values intact and wraps anything else as
// an internal failure (e.g. a BeginTx or Commit error).
func asEngineError(err error) error {
    var ae *Error
    if errors.As(err, &ae) {
        return ae
    }
    return errInternal(err)
}
