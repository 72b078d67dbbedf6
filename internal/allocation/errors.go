// Package allocation implements the room-allocation engine: the rules
// governing how students are assigned to rooms within a property, how
// capacity and compatibility constraints are enforced, and how the
// property's occupancy counters stay consistent with individual
// occupancy records.  Persistence, user lookup and notification
// delivery are consumed through interfaces so the rules stay testable
// without a database.
package allocation

import "fmt"

// Kind classifies an engine failure so handlers can translate it into
// an HTTP status without string matching.
type Kind int

const (
    KindNotFound Kind = iota + 1 // property, user or occupancy missing
    KindUnauthorized             // caller is not the owning landlord
    KindInvalidArgument          // malformed input such as a room number out of range
    KindInvalidState             // property not in an allocatable status
    KindConflict                 // capacity, compatibility or fair-distribution violation
    KindInternal                 // persistence failure or unexpected error
)

// Rule tokens identify which validation failed.  Clients and tests
// assert on these rather than on message text or status codes.
const (
    RulePropertyNotFound    = "property_not_found"
    RuleNotLandlord         = "not_property_landlord"
    RuleNotAllocatable      = "property_not_allocatable"
    RuleStudentNotFound     = "student_not_found"
    RuleNotAStudent         = "not_a_student"
    RuleRoomOutOfRange      = "room_number_out_of_range"
    RuleAlreadyOccupant     = "already_an_occupant"
    RuleRoomCapacity        = "room_capacity"
    RuleGenderMismatch      = "gender_mismatch"
    RuleReligionMismatch    = "religion_mismatch"
    RuleFairDistribution    = "fair_distribution"
    RuleNoActiveOccupancy   = "no_active_occupancy"
    RuleInternal            = "internal"
)

// Error is the engine's structured failure value.  Every validation
// produces a distinct Rule; the Kind maps the rule onto the coarse
// error taxonomy shared with the HTTP layer.
type Error struct {
    Kind    Kind
    Rule    string
    Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
    return fmt.Sprintf("allocation: %s: %s", e.Rule, e.Message)
}

func errNotFound(rule, msg string) *Error {
    return &Error{Kind: KindNotFound, Rule: rule, Message: msg}
}

func errUnauthorized(rule, msg string) *Error {
    return &Error{Kind: KindUnauthorized, Rule: rule, Message: msg}
}

func errInvalidArgument(rule, msg string) *Error {
    return &Error{Kind: KindInvalidArgument, Rule: rule, Message: msg}
}

func errInvalidState(rule, msg string) *Error {
    return &Error{Kind: KindInvalidState, Rule: rule, Message: msg}
}

func errConflict(rule, msg string) *Error {
    return &Error{Kind: KindConflict, Rule: rule, Message: msg}
}

func errInternal(err error) *Error {
    return &Error{Kind: KindInternal, Rule: RuleInternal, Message: err.Error()}
}
