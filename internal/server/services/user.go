// Package services contains server-side business logic. This file implements
// UserService: registration, credential checks, token issuance and resolving
// a bearer token back to its user.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/dmitrijs2005/gophbooks/internal/cryptox"
	"github.com/dmitrijs2005/gophbooks/internal/dbx"
	"github.com/dmitrijs2005/gophbooks/internal/server/auth"
	"github.com/dmitrijs2005/gophbooks/internal/server/config"
	"github.com/dmitrijs2005/gophbooks/internal/server/models"
	"github.com/dmitrijs2005/gophbooks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophbooks/internal/server/validation"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// dummyPassword is hashed once and verified against when ConstantTimeLogin is
// on and the email is unknown.
const dummyPassword = "gophbooks-timing-equaliser"

// UserService provides the identity operations:
//   - Register: create an account
//   - Authenticate / Login: check credentials and mint an access token
//   - ResolveUser: map a bearer token to its active user
type UserService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            cryptox.PasswordHasher
	jwtSecret         []byte
	accessTokenTTL    time.Duration
	constantTimeLogin bool
	now               func() time.Time

	dummyHash []byte
}

// NewUserService constructs a UserService using repositories and server config.
// With ConstantTimeLogin the dummy hash is computed here, so a broken hasher
// fails construction instead of silently skipping the equalising verify.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, cfg *config.Config) (*UserService, error) {
	s := &UserService{
		db:                db,
		repomanager:       m,
		hasher:            hasher,
		jwtSecret:         []byte(cfg.SecretKey),
		accessTokenTTL:    cfg.AccessTokenValidityDuration,
		constantTimeLogin: cfg.ConstantTimeLogin,
		now:               time.Now,
	}

	if s.constantTimeLogin {
		hash, err := hasher.Hash(dummyPassword)
		if err != nil {
			return nil, oops.Code("PASSWORD_HASH_FAILED").Wrapf(err, "dummy hash")
		}
		s.dummyHash = hash
	}

	return s, nil
}

// Register creates an account. Checks run in a fixed order and stop at the
// first failure: duplicate email (common.ErrDuplicateKey), confirmation
// mismatch (common.ErrPasswordMismatch), password policy (*validation.Error).
// Only then is the password hashed and the record inserted.
func (s *UserService) Register(ctx context.Context, in models.RegistrationInput) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrDuplicateKey
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internalError("USER_LOOKUP_FAILED", err)
	}

	if in.Password != in.ConfirmPassword {
		return nil, common.ErrPasswordMismatch
	}

	if err := validation.Validate(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
		}
		return nil, internalError("PASSWORD_HASH_FAILED", err)
	}

	// hashing is slow; a client that went away gets nothing stored
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user := models.NewUser(uuid.NewString(), in, hash, s.now())

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Users(tx)

		if _, err := repoTx.GetUserByEmail(ctx, user.Email); err == nil {
			return common.ErrDuplicateKey
		} else if !errors.Is(err, common.ErrorNotFound) {
			return internalError("USER_LOOKUP_FAILED", err)
		}

		if _, err := repoTx.Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrDuplicateKey) {
				return common.ErrDuplicateKey
			}
			return internalError("USER_CREATE_FAILED", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateKey) || errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		return nil, internalError("USER_CREATE_FAILED", err)
	}

	return user.Public(), nil
}

// Authenticate reports whether password is correct for the active user
// registered under email. Unknown emails return false without hashing unless
// constant-time login is configured.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (bool, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Login checks credentials and returns a bearer token whose subject is the
// email. Unknown email and wrong password both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.Email, s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return nil, internalError("TOKEN_ISSUE_FAILED", err)
	}

	return &models.Token{AccessToken: token, TokenType: common.BearerScheme}, nil
}

// ResolveUser verifies token and loads the user it names. Token problems,
// unknown subjects and inactive users all return an error matching
// common.ErrorUnauthorized; the token error, if any, is wrapped alongside.
func (s *UserService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	email, err := auth.GetSubjectFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, internalError("USER_LOOKUP_FAILED", err)
	}

	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// --- helpers below ---

// checkCredentials returns the user on success, nil on bad credentials and
// an error only when the store fails.
func (s *UserService) checkCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if s.constantTimeLogin {
				s.hasher.Verify(password, s.dummyHash)
			}
			return nil, nil
		}
		return nil, internalError("USER_LOOKUP_FAILED", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}
	if !user.IsActive {
		return nil, nil
	}

	return user, nil
}

func internalError(code string, err error) error {
	return oops.Code(code).Wrap(fmt.Errorf("%w: %w", common.ErrorInternal, err))
}
