package encryption

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyRoundTrip(t *testing.T) {
	cipher := NewTallyCipher("test-secret")

	for _, count := range []int{0, 1, 10, 10_000} {
		token, err := cipher.Encrypt(count)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, count, decrypted)
	}
}

func TestTallyFreshIVPerEncryption(t *testing.T) {
	cipher := NewTallyCipher("test-secret")

	first, err := cipher.Encrypt(42)
	require.NoError(t, err)
	second, err := cipher.Encrypt(42)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two encryptions of the same count must differ")

	for _, token := range []string{first, second} {
		decrypted, err := cipher.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, 42, decrypted)
	}
}

func TestTallySecretPaddingAndTruncation(t *testing.T) {
	t.Run("short secret is zero padded", func(t *testing.T) {
		cipher := NewTallyCipher("short")
		token, err := cipher.Encrypt(7)
		require.NoError(t, err)
		decrypted, err := cipher.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, 7, decrypted)
	})

	t.Run("long secret is truncated to 32 bytes", func(t *testing.T) {
		long := strings.Repeat("x", 48)
		token, err := NewTallyCipher(long).Encrypt(7)
		require.NoError(t, err)

		// The first 32 bytes alone must decrypt the token.
		decrypted, err := NewTallyCipher(long[:32]).Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, 7, decrypted)
	})
}

func TestTallyRejectsNegativeCount(t *testing.T) {
	cipher := NewTallyCipher("test-secret")
	_, err := cipher.Encrypt(-1)
	assert.Error(t, err)
}

func TestTallyDecryptIntegrityFailures(t *testing.T) {
	cipher := NewTallyCipher("test-secret")

	valid, err := cipher.Encrypt(3)
	require.NoError(t, err)

	cases := map[string]string{
		"empty token":          "",
		"missing delimiter":    strings.ReplaceAll(valid, ":", ""),
		"bad iv hex":           "zz" + valid[2:],
		"short iv":             "abcd:" + strings.Split(valid, ":")[1],
		"empty ciphertext":     strings.Split(valid, ":")[0] + ":",
		"ragged ciphertext":    valid + "ab",
		"wrong key ciphertext": mustEncrypt(t, NewTallyCipher("another-secret"), 3),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cipher.Decrypt(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTallyIntegrity), "expected ErrTallyIntegrity, got %v", err)
		})
	}
}

func mustEncrypt(t *testing.T, cipher *TallyCipher, count int) string {
	t.Helper()
	token, err := cipher.Encrypt(count)
	require.NoError(t, err)
	return token
}
