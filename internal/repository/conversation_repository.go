package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/student-housing/internal/model"
)

// ConversationRepo manages conversations between students and
// landlords about a property, and the messages inside them.
type ConversationRepo struct {
    db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

// GetOrCreate returns the conversation between the student and the
// property's landlord for that property, creating it when none exists
// yet.  The (property_id, student_id) pair is unique.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, propertyID, studentID uint64) (*model.Conversation, error) {
    var landlordID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT landlord_id FROM properties WHERE id = ?`, propertyID).Scan(&landlordID)
    if err == sql.ErrNoRows {
        return nil, ErrPropertyNotFound
    }
    if err != nil {
        return nil, err
    }
    c, err := r.getByPropertyAndStudent(ctx, propertyID, studentID)
    if err == nil {
        return c, nil
    }
    if err != sql.ErrNoRows {
        return nil, err
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO conversations (property_id, student_id, landlord_id) VALUES (?,?,?)`,
        propertyID, studentID, landlordID)
    if err != nil {
        return nil, err
    }
    return r.getByPropertyAndStudent(ctx, propertyID, studentID)
}

func (r *ConversationRepo) getByPropertyAndStudent(ctx context.Context, propertyID, studentID uint64) (*model.Conversation, error) {
    var c model.Conversation
    err := r.db.QueryRowContext(ctx,
        `SELECT id, property_id, student_id, landlord_id, created_at
         FROM conversations WHERE property_id = ? AND student_id = ? LIMIT 1`,
        propertyID, studentID).Scan(&c.ID, &c.PropertyID, &c.StudentID, &c.LandlordID, &c.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// GetByID returns a conversation or sql.ErrNoRows.
func (r *ConversationRepo) GetByID(ctx context.Context, id uint64) (*model.Conversation, error) {
    var c model.Conversation
    err := r.db.QueryRowContext(ctx,
        `SELECT id, property_id, student_id, landlord_id, created_at
         FROM conversations WHERE id = ? LIMIT 1`, id).
        Scan(&c.ID, &c.PropertyID, &c.StudentID, &c.LandlordID, &c.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &c, nil
}

// ConversationDetail is one row of a user's inbox: the conversation
// plus the property title and the other party's name.
type ConversationDetail struct {
    ID            uint64    `json:"id"`
    PropertyID    uint64    `json:"property_id"`
    PropertyTitle string    `json:"property_title"`
    StudentID     uint64    `json:"student_id"`
    StudentName   string    `json:"student_name"`
    LandlordID    uint64    `json:"landlord_id"`
    LandlordName  string    `json:"landlord_name"`
    CreatedAt     time.Time `json:"created_at"`
}

// ListForUser returns every conversation the user participates in, as
// student or landlord, newest first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID uint64) ([]ConversationDetail, error) {
    const q = `SELECT c.id, c.property_id, p.title, c.student_id, s.name,
                      c.landlord_id, l.name, c.created_at
               FROM conversations c
               JOIN properties p ON p.id = c.property_id
               JOIN users s ON s.id = c.student_id
               JOIN users l ON l.id = c.landlord_id
               WHERE c.student_id = ? OR c.landlord_id = ?
               ORDER BY c.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ConversationDetail, 0)
    for rows.Next() {
        var d ConversationDetail
        if err := rows.Scan(&d.ID, &d.PropertyID, &d.PropertyTitle, &d.StudentID, &d.StudentName,
            &d.LandlordID, &d.LandlordName, &d.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// AddMessage appends a message to a conversation after checking the
// sender is a participant.  Returns ErrForbidden otherwise.
func (r *ConversationRepo) AddMessage(ctx context.Context, conversationID, senderID uint64, body string) (*model.Message, error) {
    c, err := r.GetByID(ctx, conversationID)
    if err != nil {
        return nil, err
    }
    if senderID != c.StudentID && senderID != c.LandlordID {
        return nil, ErrForbidden
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO messages (conversation_id, sender_id, body) VALUES (?,?,?)`,
        conversationID, senderID, body)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    var m model.Message
    err = r.db.QueryRowContext(ctx,
        `SELECT id, conversation_id, sender_id, body, created_at FROM messages WHERE id = ?`,
        id).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &m, nil
}

// Messages returns all messages of a conversation in chronological
// order, verifying the caller is a participant.
func (r *ConversationRepo) Messages(ctx context.Context, conversationID, userID uint64) ([]model.Message, error) {
    c, err := r.GetByID(ctx, conversationID)
    if err != nil {
        return nil, err
    }
    if userID != c.StudentID && userID != c.LandlordID {
        return nil, ErrForbidden
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, conversation_id, sender_id, body, created_at
         FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`,
        conversationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Message, 0)
    for rows.Next() {
        var m model.Message
        if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
