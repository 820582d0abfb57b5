// Package models defines the server-side data structures: the persisted user
// record, the transient request inputs and the public projections returned
// to clients.
package models

import "time"

// User is the persisted identity record. PasswordHash never holds plaintext.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash []byte
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegistrationInput is the registration request. It is never persisted.
type RegistrationInput struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginInput is the login request. It is never persisted.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicUser is the part of a User that may leave the server.
type PublicUser struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NewUser builds an active record for a registration. Both timestamps are
// set to now in UTC.
func NewUser(id string, in RegistrationInput, passwordHash []byte, now time.Time) *User {
	now = now.UTC()
	return &User{
		ID:           id,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Public projects the record to its public-safe view.
func (u *User) Public() *PublicUser {
	return &PublicUser{Email: u.Email, FullName: u.FullName}
}
