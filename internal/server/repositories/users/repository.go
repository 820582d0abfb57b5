// Package users stores user identity records keyed by email.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophbooks/internal/server/models"
)

// Repository is the user record store. Email uniqueness is enforced by the
// storage itself: Create returns common.ErrDuplicateKey on a conflicting
// email, and GetUserByEmail returns common.ErrorNotFound when absent.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
