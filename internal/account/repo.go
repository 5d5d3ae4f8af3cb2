package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrInvalidRole   = errors.New("account: invalid role")
	ErrMissingHandle = errors.New("account: phone or registration number required")
	ErrMissingHash   = errors.New("account: password hash required")
)

// Repository persists users.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user and returns its id. Role is fixed from here on.
func (r *Repository) Create(ctx context.Context, u User) (int64, error) {
	if !u.Role.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}
	if isBlank(u.Phone) && isBlank(u.RegistrationNumber) {
		return 0, ErrMissingHandle
	}
	if u.PasswordHash == "" {
		return 0, ErrMissingHash
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, role, phone, registration_number, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.Name, string(u.Role), nullable(u.Phone), nullable(u.RegistrationNumber), u.PasswordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("account: insert user: %w", err)
	}
	return id, nil
}

// FindByRegistrationNumber returns at most two users whose registration number matches.
func (r *Repository) FindByRegistrationNumber(ctx context.Context, regNo string) ([]User, error) {
	return r.find(ctx, `
		SELECT id, name, role, phone, registration_number, password_hash
		FROM users
		WHERE registration_number = $1
		ORDER BY id
		LIMIT 2
	`, regNo)
}

// FindByHandle returns at most two users whose phone or registration number matches.
func (r *Repository) FindByHandle(ctx context.Context, handle string) ([]User, error) {
	return r.find(ctx, `
		SELECT id, name, role, phone, registration_number, password_hash
		FROM users
		WHERE phone = $1 OR registration_number = $2
		ORDER BY id
		LIMIT 2
	`, handle, handle)
}

// GetByID returns a single user, or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	users, err := r.find(ctx, `
		SELECT id, name, role, phone, registration_number, password_hash
		FROM users WHERE id = $1
	`, id)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

func (r *Repository) find(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("account: query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u     User
			role  string
			phone sql.NullString
			regNo sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &role, &phone, &regNo, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("account: scan user: %w", err)
		}
		u.Role = Role(role)
		if phone.Valid {
			u.Phone = &phone.String
		}
		if regNo.Valid {
			u.RegistrationNumber = &regNo.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func isBlank(s *string) bool { return s == nil || *s == "" }

func nullable(s *string) any {
	if isBlank(s) {
		return nil
	}
	return *s
}
