package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestRoomCapacity(t *testing.T) {
    p := Property{Bedrooms: 3, RoomSharing: false, TenantsPerRoom: 4}
    assert.Equal(t, uint32(1), p.RoomCapacity(), "non-sharing rooms hold one occupant")

    p.RoomSharing = true
    assert.Equal(t, uint32(4), p.RoomCapacity())
    assert.Equal(t, uint32(12), p.MaxOccupants())

    // Malformed rows floor at one occupant per room.
    p.TenantsPerRoom = 0
    assert.Equal(t, uint32(1), p.RoomCapacity())
}

func TestSummarize(t *testing.T) {
    p := Property{
        Bedrooms:          4,
        RoomSharing:       true,
        TenantsPerRoom:    2,
        CurrentOccupants:  3,
        PricePerRoomCents: 52000,
    }
    active := []Occupant{
        {UserID: 1, RoomNumber: 1, Status: OccupantActive},
        {UserID: 2, RoomNumber: 1, Status: OccupantActive},
        {UserID: 3, RoomNumber: 3, Status: OccupantActive},
    }

    s := p.Summarize(active)
    assert.Equal(t, uint32(4), s.TotalRooms)
    assert.Equal(t, uint32(2), s.OccupiedRooms)
    assert.Equal(t, uint32(2), s.AvailableRooms)
    assert.Equal(t, uint32(52000), s.PricePerRoomCents)
    assert.True(t, s.IsShared)
    assert.Equal(t, uint32(3), s.TotalOccupants)
    assert.Equal(t, uint32(8), s.MaxOccupants)
    assert.Equal(t, uint32(5), s.RemainingOccupantSlots)
}

func TestSummarizeEmptyProperty(t *testing.T) {
    p := Property{Bedrooms: 2, PricePerRoomCents: 40000}
    s := p.Summarize(nil)
    assert.Equal(t, uint32(2), s.AvailableRooms)
    assert.Equal(t, uint32(0), s.OccupiedRooms)
    assert.Equal(t, uint32(2), s.RemainingOccupantSlots)
}
