package model

import "time"

// Property statuses stored in properties.status.  MAINTENANCE takes a
// property off the market without deleting it; allocation is refused
// in that state.
const (
    PropertyAvailable   = "AVAILABLE"
    PropertyRented      = "RENTED"
    PropertyMaintenance = "MAINTENANCE"
)

// Property describes a rental listing owned by a landlord.  Rooms are
// counted, not laid out individually: Bedrooms is the number of rooms
// and room numbers run 1..Bedrooms.  When RoomSharing is enabled a
// single room holds up to TenantsPerRoom occupants, otherwise exactly
// one.  CurrentOccupants is a denormalized mirror of the count of
// ACTIVE rows in the occupants table and must only ever be mutated in
// the same transaction as those rows.
//
// Fields:
//  ID                 – primary key identifier.
//  LandlordID         – user ID of the owning landlord.
//  Title              – short listing title.
//  Location           – human readable address or area.
//  Description        – optional free-form description.
//  PricePerRoomCents  – monthly price for one room slot, in cents.
//  Bedrooms           – number of rooms available for allocation.
//  RoomSharing        – whether a room may hold more than one occupant.
//  TenantsPerRoom     – occupants allowed per room when sharing.
//  CurrentOccupants   – denormalized count of ACTIVE occupancy records.
//  Status             – AVAILABLE, RENTED or MAINTENANCE.
//  Gender             – gender preference (MALE, FEMALE or ANY).
//  Religion           – religion preference, or ANY.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Property struct {
    ID                uint64    // properties.id
    LandlordID        uint64    // properties.landlord_id
    Title             string    // properties.title
    Location          string    // properties.location
    Description       *string   // properties.description (nullable)
    PricePerRoomCents uint32    // properties.price_per_room_cents
    Bedrooms          uint32    // properties.bedrooms
    RoomSharing       bool      // properties.room_sharing
    TenantsPerRoom    uint32    // properties.tenants_per_room
    CurrentOccupants  uint32    // properties.current_occupants
    Status            string    // properties.status
    Gender            string    // properties.gender
    Religion          string    // properties.religion
    CreatedAt         time.Time // properties.created_at
    UpdatedAt         time.Time // properties.updated_at
}

// RoomCapacity returns how many occupants a single room may hold.
// Non-sharing properties always hold one occupant per room; sharing
// properties hold TenantsPerRoom, floored at one for malformed rows.
func (p *Property) RoomCapacity() uint32 {
    if !p.RoomSharing {
        return 1
    }
    if p.TenantsPerRoom < 1 {
        return 1
    }
    return p.TenantsPerRoom
}

// MaxOccupants returns the total occupant capacity of the property:
// bedrooms times the per-room capacity.
func (p *Property) MaxOccupants() uint32 {
    return p.Bedrooms * p.RoomCapacity()
}

// AllocationSummary is the occupancy breakdown returned alongside a
// property for display: how many rooms exist, how many are taken, and
// how many occupant slots remain.  OccupiedRooms counts rooms with at
// least one ACTIVE occupant, so for sharing properties it can be lower
// than TotalOccupants.
type AllocationSummary struct {
    TotalRooms             uint32 `json:"total_rooms"`
    OccupiedRooms          uint32 `json:"occupied_rooms"`
    AvailableRooms         uint32 `json:"available_rooms"`
    PricePerRoomCents      uint32 `json:"price_per_room_cents"`
    IsShared               bool   `json:"is_shared"`
    TenantsPerRoom         uint32 `json:"tenants_per_room"`
    TotalOccupants         uint32 `json:"total_occupants"`
    MaxOccupants           uint32 `json:"max_occupants"`
    RemainingOccupantSlots uint32 `json:"remaining_occupant_slots"`
}

// Summarize builds the AllocationSummary for a property given its
// current ACTIVE occupants.  The occupant slice is used to derive the
// set of occupied room numbers; counters come from the property row.
func (p *Property) Summarize(active []Occupant) AllocationSummary {
    occupied := make(map[uint32]struct{}, len(active))
    for _, o := range active {
        occupied[o.RoomNumber] = struct{}{}
    }
    s := AllocationSummary{
        TotalRooms:        p.Bedrooms,
        OccupiedRooms:     uint32(len(occupied)),
        PricePerRoomCents: p.PricePerRoomCents,
        IsShared:          p.RoomSharing,
        TenantsPerRoom:    p.RoomCapacity(),
        TotalOccupants:    p.CurrentOccupants,
        MaxOccupants:      p.MaxOccupants(),
    }
    if s.TotalRooms > s.OccupiedRooms {
        s.AvailableRooms = s.TotalRooms - s.OccupiedRooms
    }
    if s.MaxOccupants > s.TotalOccupants {
        s.RemainingOccupantSlots = s.MaxOccupants - s.TotalOccupants
    }
    return s
}
