package model

import "time"

// Conversation is a message thread between a student and a landlord,
// anchored to the property the student asked about.  One thread per
// (property, student) pair.
type Conversation struct {
    ID         uint64    // conversations.id
    StudentID  uint64    // conversations.student_id
    LandlordID uint64    // conversations.landlord_id
    PropertyID uint64    // conversations.property_id
    CreatedAt  time.Time // conversations.created_at
}

// Message is a single entry in a conversation.  Either participant may
// be the sender.
type Message struct {
    ID             uint64    // messages.id
    ConversationID uint64    // messages.conversation_id
    SenderID       uint64    // messages.sender_id
    Body           string    // messages.body
    CreatedAt      time.Time // messages.created_at
}
