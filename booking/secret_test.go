package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSecret(t *testing.T) {
	assert.NoError(t, ValidateSecret("0420"))
	for _, bad := range []string{"", "123", "12345", "12a4", "１２３４"} {
		assert.ErrorIs(t, ValidateSecret(bad), ErrInvalidSecret, bad)
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	r := Reservation{ID: "x", SecretHash: hash}
	assert.NoError(t, VerifySecret(r, "1234"))
	assert.ErrorIs(t, VerifySecret(r, "4321"), ErrSecretMismatch)
	assert.ErrorIs(t, VerifySecret(r, "12"), ErrInvalidSecret)

	_, err = HashSecret("abcd")
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestGateThrottles(t *testing.T) {
	hash, err := HashSecret("1234")
	require.NoError(t, err)
	r := Reservation{ID: "x", SecretHash: hash}
	other := Reservation{ID: "y", SecretHash: hash}

	g := NewGate(1, 2)
	assert.ErrorIs(t, g.Verify(r, "0000"), ErrSecretMismatch)
	assert.ErrorIs(t, g.Verify(r, "0000"), ErrSecretMismatch)
	assert.ErrorIs(t, g.Verify(r, "1234"), ErrTooManyAttempts)

	// Limits are per reservation.
	assert.NoError(t, g.Verify(other, "1234"))

	g.Forget("x")
	assert.NoError(t, g.Verify(r, "1234"))
}
