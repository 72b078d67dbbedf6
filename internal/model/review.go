package model

import "time"

// Review is a student's rating of a property.  One review per
// (property, student) pair; only current or former occupants may post.
type Review struct {
    ID         uint64    // reviews.id
    PropertyID uint64    // reviews.property_id
    StudentID  uint64    // reviews.student_id
    Rating     uint8     // reviews.rating (1..5)
    Comment    *string   // reviews.comment (nullable)
    CreatedAt  time.Time // reviews.created_at
}
