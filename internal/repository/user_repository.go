package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/student-housing/internal/model"
	"github.com/iliyamo/student-housing/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,name,email,password_hash,user_type,gender,religion,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. Gender and religion
// default to the ANY wildcard when left empty so compatibility checks
// treat undisclosed values as unconstrained.
func (r *UserRepo) Create(ctx context.Context, name, email, password, userType, gender, religion string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if gender == "" {
		gender = model.GenderAny
	}
	if religion == "" {
		religion = model.ReligionAny
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, user_type, gender, religion) VALUES (?,?,?,?,?,?)",
		name, email, hash, userType, gender, religion)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.UserType,
		&u.Gender, &u.Religion, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
