package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/student-housing/internal/model"
)

// ReviewRepo stores property reviews.  The one-review-per-student
// rule is enforced by a unique (property_id, student_id) index;
// duplicates surface as ErrConflict.
type ReviewRepo struct {
    db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and populates the generated ID.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO reviews (property_id, student_id, rating, comment) VALUES (?,?,?,?)`,
        rv.PropertyID, rv.StudentID, rv.Rating, rv.Comment)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rv.ID = uint64(id)
    return nil
}

// ReviewDetail is a review joined with the author's name for public
// display.
type ReviewDetail struct {
    ID          uint64    `json:"id"`
    StudentID   uint64    `json:"student_id"`
    StudentName string    `json:"student_name"`
    Rating      uint8     `json:"rating"`
    Comment     *string   `json:"comment,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// ListByProperty returns all reviews of a property, newest first.
func (r *ReviewRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]ReviewDetail, error) {
    const q = `SELECT r.id, r.student_id, u.name, r.rating, r.comment, r.created_at
               FROM reviews r
               JOIN users u ON u.id = r.student_id
               WHERE r.property_id = ?
               ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, propertyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ReviewDetail, 0)
    for rows.Next() {
        var d ReviewDetail
        var comment sql.NullString
        if err := rows.Scan(&d.ID, &d.StudentID, &d.StudentName, &d.Rating, &comment, &d.CreatedAt); err != nil {
            return nil, err
        }
        if comment.Valid {
            c := comment.String
            d.Comment = &c
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
