// Package auth provides password hashing for user accounts.
package auth // import "github.com/mxd-net/mxd-core/auth"

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/mxd-net/mxd-core/common/errors"
)

// ErrPasswordMismatch is returned by Verify when the password does not match
// the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher hashes passwords for storage and verifies submitted ones.
// One instance is shared by every connection task and the admin CLI.
type PasswordHasher interface {
	// Hash derives a storable hash from the password.
	Hash(password string) (string, error)
	// Verify checks the password against a stored hash. It returns
	// ErrPasswordMismatch when they do not match.
	Verify(password, stored string) error
}

// Argon2 parameter defaults, matching argon2id's recommended settings.
const (
	DefaultMCost uint32 = 19456
	DefaultTCost uint32 = 2
	DefaultPCost uint32 = 1

	saltLen = 16
	keyLen  = 32
)

// Argon2Hasher is a PasswordHasher using Argon2id with fixed parameters. The
// parameters are immutable after construction so the instance can be shared
// without synchronization.
type Argon2Hasher struct {
	mCost uint32
	tCost uint32
	pCost uint8
}

// NewArgon2Hasher creates a hasher with the given cost parameters. Zero
// values select the defaults.
func NewArgon2Hasher(mCost, tCost, pCost uint32) *Argon2Hasher {
	if mCost == 0 {
		mCost = DefaultMCost
	}
	if tCost == 0 {
		tCost = DefaultTCost
	}
	if pCost == 0 {
		pCost = DefaultPCost
	}
	return &Argon2Hasher{
		mCost: mCost,
		tCost: tCost,
		pCost: uint8(pCost),
	}
}

// Hash implements PasswordHasher. The result uses the PHC string format:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.New("failed to generate salt").Base(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.tCost, h.mCost, h.pCost, keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.mCost, h.tCost, h.pCost,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify implements PasswordHasher. The stored string carries its own
// parameters, so hashes created under older settings keep verifying.
func (h *Argon2Hasher) Verify(password, stored string) error {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return errors.New("malformed password hash").AtWarning()
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return errors.New("malformed hash version").Base(err)
	}
	if version != argon2.Version {
		return errors.New("unsupported argon2 version ", version)
	}

	var mCost, tCost uint32
	var pCost uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mCost, &tCost, &pCost); err != nil {
		return errors.New("malformed hash parameters").Base(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return errors.New("malformed hash salt").Base(err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return errors.New("malformed hash value").Base(err)
	}

	got := argon2.IDKey([]byte(password), salt, tCost, mCost, pCost, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
