// Package cryptox implements one-way password hashing.
//
// Hashes are self-describing: bcrypt hashes start with "$2", argon2id hashes
// use the PHC string format "$argon2id$v=19$m=..,t=..,p=..$salt$hash". The salt
// is embedded in the hash, so Verify always re-derives with the stored salt and
// never re-hashes with a fresh one.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// argon2id parameters, OWASP baseline.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

const argon2Prefix = "$argon2id$"

// Bounds on parameters decoded from a stored argon2id hash.
const (
	argon2MaxMemory = 1 << 20 // KiB, 1 GiB
	argon2MaxTime   = 16
	argon2MaxSalt   = 64
	argon2MaxKey    = 1024
)

var (
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooLong     = errors.New("password is too long")
	ErrUnsupportedHashAlgo = errors.New("unsupported hash algorithm")
)

// PasswordHasher turns a plaintext password into a storable hash and checks
// a plaintext against a stored hash.
type PasswordHasher interface {
	// Hash returns a salted hash; two calls with the same input differ.
	Hash(password string) ([]byte, error)
	// Verify reports whether password matches hash. Malformed hashes yield false.
	Verify(password string, hash []byte) bool
}

// BcryptHasher hashes with bcrypt at the given cost.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	plain := []byte(password)
	defer common.WipeByteArray(plain)

	hash, err := bcrypt.GenerateFromPassword(plain, h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return hash, nil
}

func (h *BcryptHasher) Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Argon2idHasher hashes with argon2id and encodes the result as a PHC string.
type Argon2idHasher struct{}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

func (h *Argon2idHasher) Hash(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	plain := []byte(password)
	defer common.WipeByteArray(plain)

	salt := common.GenerateRandByteArray(argon2SaltLen)
	key := argon2.IDKey(plain, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return []byte(encoded), nil
}

func (h *Argon2idHasher) Verify(password string, hash []byte) bool {
	parts := strings.Split(string(hash), "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	// argon2.IDKey panics on t < 1 or p < 1 and allocates m KiB.
	if time < 1 || time > argon2MaxTime || threads < 1 {
		return false
	}
	if memory < 8*uint32(threads) || memory > argon2MaxMemory {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) > argon2MaxSalt {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > argon2MaxKey {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// MultiHasher hashes with one algorithm and verifies hashes produced by any
// supported algorithm, so stored hashes keep working after the configured
// algorithm changes.
type MultiHasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2idHasher
}

// NewHasher returns a MultiHasher hashing with algorithm. bcryptCost is used
// for bcrypt hashing only; zero selects bcrypt.DefaultCost.
func NewHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: NewBcryptHasher(bcryptCost),
		argon2: NewArgon2idHasher(),
	}

	switch algorithm {
	case "", AlgorithmBcrypt:
		m.primary = m.bcrypt
	case AlgorithmArgon2id:
		m.primary = m.argon2
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHashAlgo, algorithm)
	}

	return m, nil
}

func (m *MultiHasher) Hash(password string) ([]byte, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Verify(password string, hash []byte) bool {
	if strings.HasPrefix(string(hash), argon2Prefix) {
		return m.argon2.Verify(password, hash)
	}
	return m.bcrypt.Verify(password, hash)
}
