package model

import "time"

// Occupant statuses.  A record is created ACTIVE and flipped to
// INACTIVE exactly once on release; rows are never deleted, so the
// table doubles as the tenancy history for a user/property pair.
const (
    OccupantActive   = "ACTIVE"
    OccupantInactive = "INACTIVE"
)

// Occupant represents one student's claim on one room slot within a
// property.  RoomNumber runs 1..Property.Bedrooms.
//
// Fields:
//  ID              – primary key identifier.
//  PropertyID      – property being occupied.
//  UserID          – student holding the room slot.
//  RoomNumber      – which room within the property (1-based).
//  Status          – ACTIVE or INACTIVE.
//  StartDate       – when the tenancy began.
//  EndDate         – when the tenancy ended (null while ACTIVE).
//  TotalPriceCents – price committed for the slot, in cents.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Occupant struct {
    ID              uint64     // occupants.id
    PropertyID      uint64     // occupants.property_id
    UserID          uint64     // occupants.user_id
    RoomNumber      uint32     // occupants.room_number
    Status          string     // occupants.status
    StartDate       time.Time  // occupants.start_date
    EndDate         *time.Time // occupants.end_date (nullable)
    TotalPriceCents uint32     // occupants.total_price_cents
    CreatedAt       time.Time  // occupants.created_at
    UpdatedAt       time.Time  // occupants.updated_at
}
