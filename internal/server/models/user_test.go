package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, loc)

	in := RegistrationInput{Email: "a@b.com", FullName: "A B", Password: "GoodPass1!", ConfirmPassword: "GoodPass1!"}
	u := NewUser("id-1", in, []byte("hash"), now)

	assert.Equal(t, "id-1", u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "A B", u.FullName)
	assert.Equal(t, []byte("hash"), u.PasswordHash)
	assert.True(t, u.IsActive)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.True(t, u.CreatedAt.Equal(now))
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

func TestUser_PublicHidesHash(t *testing.T) {
	u := &User{ID: "id-1", Email: "a@b.com", FullName: "A B", PasswordHash: []byte("$2a$10$secret")}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.JSONEq(t, `{"email":"a@b.com","full_name":"A B"}`, string(b))
}
