package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(phc, "$argon2id$v=19$"))

	require.True(t, Verify("correct horse battery staple", phc))
	require.False(t, Verify("otro password", phc))
	require.False(t, Verify("", phc))
	require.False(t, Verify("correct horse battery staple", ""))
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := Hash(Default, "")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashSaltsDiffer(t *testing.T) {
	a, err := Hash(Default, "same")
	require.NoError(t, err)
	b, err := Hash(Default, "same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyGarbage(t *testing.T) {
	require.False(t, Verify("x", "$argon2id$v=19$m=65536,t=3,p=1$!!!$!!!"))
	require.False(t, Verify("x", "$bcrypt$whatever"))
	require.False(t, Verify("x", "no-phc"))
}
