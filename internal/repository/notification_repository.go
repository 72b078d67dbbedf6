package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/student-housing/internal/model"
)

// NotificationRepo stores per-user inbox entries.  Rows are written by
// the queue consumer and read through the notifications endpoints.
type NotificationRepo struct {
    db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification and populates the generated ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO notifications (user_id, kind, payload) VALUES (?,?,?)`,
        n.UserID, n.Kind, n.Payload)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    n.ID = uint64(id)
    return nil
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, user_id, kind, payload, is_read, created_at
         FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Notification, 0)
    for rows.Next() {
        var n model.Notification
        if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, n)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// MarkRead flags one of the user's notifications as read.  Returns
// sql.ErrNoRows when the notification does not exist or belongs to
// someone else.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
        id, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}
