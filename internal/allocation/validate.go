package allocation

import (
    "context"
    "errors"
    "fmt"

    "github.com/iliyamo/student-housing/internal/model"
)

// ErrRecordNotFound is the sentinel Store and UserLookup
// implementations wrap when a requested record does not exist.  The
// engine translates it into the NotFound kind with the appropriate
// rule token.
var ErrRecordNotFound = errors.New("record not found")

func isNotFound(err error) bool {
    return errors.Is(err, ErrRecordNotFound)
}

// checkAllocate runs the ordered validation chain for an allocation
// request: property state, room range, duplicate occupancy, room
// capacity, compatibility and the fair-distribution guard.  It is
// executed twice per request — once on the pre-transaction snapshot
// and once against locked state.
func (e *Engine) checkAllocate(ctx context.Context, p *model.Property, student *model.User, roomNumber uint32, active []model.Occupant) error {
    checks := []func() error{
        func() error { return checkAllocatableStatus(p) },
        func() error { return checkRoomNumber(p, roomNumber) },
        func() error { return checkNotAlreadyOccupant(student.ID, active) },
        func() error { return e.checkRoomCapacity(p, roomNumber, active) },
        func() error { return e.checkCompatibility(ctx, student, roomNumber, active) },
        func() error { return e.checkFairDistribution(p, roomNumber, active) },
    }
    for _, check := range checks {
        if err := check(); err != nil {
            return err
        }
    }
    return nil
}

func checkAllocatableStatus(p *model.Property) error {
    switch p.Status {
    case model.PropertyMaintenance:
        return errInvalidState(RuleNotAllocatable, "property is under maintenance")
    case model.PropertyRented:
        return errInvalidState(RuleNotAllocatable, "property is fully rented")
    }
    return nil
}

func checkRoomNumber(p *model.Property, roomNumber uint32) error {
    if roomNumber < 1 || roomNumber > p.Bedrooms {
        return errInvalidArgument(RuleRoomOutOfRange,
            fmt.Sprintf("room number must be between 1 and %d", p.Bedrooms))
    }
    return nil
}

func checkNotAlreadyOccupant(studentID uint64, active []model.Occupant) error {
    for _, o := range active {
        if o.UserID == studentID {
            return errConflict(RuleAlreadyOccupant, "student is already an occupant of this property")
        }
    }
    return nil
}

// roomCapacity returns the effective occupant capacity of one room,
// applying the policy cap for sharing properties when configured.
func (e *Engine) roomCapacity(p *model.Property) uint32 {
    capacity := p.RoomCapacity()
    if p.RoomSharing && e.policy.SharedRoomCap > 0 && capacity > e.policy.SharedRoomCap {
        capacity = e.policy.SharedRoomCap
    }
    return capacity
}

// maxOccupants is bedrooms times the effective per-room capacity.
func (e *Engine) maxOccupants(p *model.Property) uint32 {
    return p.Bedrooms * e.roomCapacity(p)
}

func (e *Engine) checkRoomCapacity(p *model.Property, roomNumber uint32, active []model.Occupant) error {
    inRoom := occupantsInRoom(active, roomNumber)
    capacity := e.roomCapacity(p)
    if uint32(len(inRoom)) >= capacity {
        if capacity == 1 {
            return errConflict(RuleRoomCapacity, fmt.Sprintf("room %d is already occupied", roomNumber))
        }
        return errConflict(RuleRoomCapacity,
            fmt.Sprintf("room %d already holds %d of %d occupants", roomNumber, len(inRoom), capacity))
    }
    return nil
}

// checkCompatibility compares the candidate against the first ACTIVE
// occupant of the requested room (first by start date, per the Store
// ordering contract).  A mismatch on gender or religion is a hard
// conflict only when both sides declare a concrete (non-ANY) value.
// Empty rooms always pass.
func (e *Engine) checkCompatibility(ctx context.Context, student *model.User, roomNumber uint32, active []model.Occupant) error {
    inRoom := occupantsInRoom(active, roomNumber)
    if len(inRoom) == 0 {
        return nil
    }
    first, err := e.users.GetUser(ctx, inRoom[0].UserID)
    if err != nil {
        return errInternal(err)
    }
    if concreteMismatch(student.Gender, first.Gender) {
        return errConflict(RuleGenderMismatch,
            fmt.Sprintf("gender mismatch with the current occupant of room %d", roomNumber))
    }
    if concreteMismatch(student.Religion, first.Religion) {
        return errConflict(RuleReligionMismatch,
            fmt.Sprintf("religion mismatch with the current occupant of room %d", roomNumber))
    }
    return nil
}

// checkFairDistribution verifies, property-wide, that granting this
// allocation still leaves one free room slot for every remaining
// prospective occupant.  Remaining prospects derive from the
// denormalized occupant counter while free slots derive from the
// occupancy records room by room, so the guard also trips when the
// counter has drifted below the real occupancy and the property would
// be oversold.  A policy heuristic, not a law of the domain; it can
// be disabled.
func (e *Engine) checkFairDistribution(p *model.Property, roomNumber uint32, active []model.Occupant) error {
    if !e.policy.FairDistribution {
        return nil
    }
    maxOcc := e.maxOccupants(p)
    if maxOcc <= p.CurrentOccupants {
        // Capacity checks fire first; nothing left to guard here.
        return nil
    }
    prospects := maxOcc - p.CurrentOccupants - 1
    if prospects == 0 {
        return nil
    }
    capacity := e.roomCapacity(p)
    freeSlots := uint32(0)
    for room := uint32(1); room <= p.Bedrooms; room++ {
        n := uint32(len(occupantsInRoom(active, room)))
        if room == roomNumber {
            n++
        }
        if capacity > n {
            freeSlots += capacity - n
        }
    }
    if freeSlots < prospects {
        return errConflict(RuleFairDistribution,
            "allocation would leave fewer room slots than remaining prospective occupants need")
    }
    return nil
}

// occupantsInRoom filters the active occupants down to one room,
// preserving order.
func occupantsInRoom(active []model.Occupant, roomNumber uint32) []model.Occupant {
    var out []model.Occupant
    for _, o := range active {
        if o.RoomNumber == roomNumber {
            out = append(out, o)
        }
    }
    return out
}

// concreteMismatch reports whether two values conflict: both concrete
// (non-ANY, non-empty) and different.
func concreteMismatch(a, b string) bool {
    if a == "" || b == "" || a == model.GenderAny || b == model.GenderAny {
        return false
    }
    return a != b
}
