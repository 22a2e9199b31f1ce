package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/mxd-net/mxd-core/auth"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewArgon2Hasher(0, 0, 0)

	stored, err := hasher.Hash("secret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored, "$argon2id$v=19$m=19456,t=2,p=1$"), stored)

	require.NoError(t, hasher.Verify("secret", stored))
	require.Equal(t, ErrPasswordMismatch, hasher.Verify("wrong", stored))
}

func TestHashesAreSalted(t *testing.T) {
	hasher := NewArgon2Hasher(0, 0, 0)

	first, err := hasher.Hash("secret")
	require.NoError(t, err)
	second, err := hasher.Hash("secret")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyUsesStoredParameters(t *testing.T) {
	// A hash created under cheaper parameters keeps verifying after the
	// server raises its own.
	weak := NewArgon2Hasher(8192, 1, 1)
	stored, err := weak.Hash("secret")
	require.NoError(t, err)

	strong := NewArgon2Hasher(0, 0, 0)
	require.NoError(t, strong.Verify("secret", stored))
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := NewArgon2Hasher(0, 0, 0)
	require.Error(t, hasher.Verify("secret", "not-a-hash"))
	require.Error(t, hasher.Verify("secret", "$bcrypt$whatever"))
}
