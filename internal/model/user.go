package model

import "time"

// User types stored in users.user_type.  Students browse and get
// allocated to rooms; landlords own properties and perform the
// allocations; admins are reserved for back-office tooling.
const (
    UserTypeStudent  = "STUDENT"
    UserTypeLandlord = "LANDLORD"
    UserTypeAdmin    = "ADMIN"
)

// Gender values used both on users (the student's own gender) and on
// properties (the landlord's preference).  GenderAny acts as a
// wildcard on either side of a compatibility check.
const (
    GenderMale   = "MALE"
    GenderFemale = "FEMALE"
    GenderAny    = "ANY"
)

// ReligionAny is the wildcard religion value.  Religions are free-form
// strings; only equality and the wildcard matter to the engine.
const ReligionAny = "ANY"

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  Handlers define separate response types with JSON tags;
// this struct is used internally by the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown to counterparties.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  UserType     – STUDENT, LANDLORD or ADMIN.
//  Gender       – student's gender (MALE, FEMALE or ANY when undisclosed).
//  Religion     – student's religion, or ANY when undisclosed.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    UserType     string    // users.user_type
    Gender       string    // users.gender
    Religion     string    // users.religion
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
