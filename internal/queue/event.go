// Package queue defines message payloads exchanged over the message broker.
package queue

// TenantLeftEvent is published when a landlord releases a student's
// occupancy. It contains enough information for downstream consumers to
// notify the landlord or log the change without querying the primary
// database.
type TenantLeftEvent struct {
    StudentID        uint64 `json:"student_id"`
    StudentName      string `json:"student_name"`
    PropertyID       uint64 `json:"property_id"`
    PropertyLocation string `json:"property_location"`
    RoomNumber       uint32 `json:"room_number"`
    LandlordID       uint64 `json:"landlord_id"`
    LeftAt           string `json:"left_at"`
}
