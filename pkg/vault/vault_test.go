package vault_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/danielsotopino/api-transbank/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", vault.KeySize)))
}

func TestVault_EncryptDecrypt(t *testing.T) {
	v := vault.NewVault(vault.Config{Key: testKey()})

	t.Run("round trip", func(t *testing.T) {
		ciphertext, err := v.Encrypt("tbk-permanent-token")
		require.NoError(t, err)
		assert.NotContains(t, ciphertext, "tbk-permanent-token")

		plain, err := v.Decrypt(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, "tbk-permanent-token", plain)
	})

	t.Run("same plaintext yields different ciphertexts", func(t *testing.T) {
		a, err := v.Encrypt("token")
		require.NoError(t, err)
		b, err := v.Encrypt("token")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := v.Encrypt("token")
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff

		_, err = v.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, vault.ErrCorruptCiphertext)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := v.Decrypt("%%%not-base64")
		assert.ErrorIs(t, err, vault.ErrCorruptCiphertext)

		_, err = v.Decrypt("c2hvcnQ")
		assert.ErrorIs(t, err, vault.ErrCorruptCiphertext)
	})

	t.Run("ciphertext from another key", func(t *testing.T) {
		other := vault.NewVault(vault.Config{
			Key: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("z", vault.KeySize))),
		})
		ciphertext, err := other.Encrypt("token")
		require.NoError(t, err)

		_, err = v.Decrypt(ciphertext)
		assert.ErrorIs(t, err, vault.ErrCorruptCiphertext)
	})
}

func TestVault_InvalidKey(t *testing.T) {
	testCases := []struct {
		name string
		key  string
	}{
		{name: "missing", key: ""},
		{name: "short", key: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "long", key: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 64)))},
		{name: "not base64", key: "!!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := vault.NewVault(vault.Config{Key: tc.key})

			_, err := v.Encrypt("token")
			assert.ErrorIs(t, err, vault.ErrInvalidKey)

			_, err = v.Decrypt("anything")
			assert.ErrorIs(t, err, vault.ErrInvalidKey)

			_, err = v.Fingerprint("token")
			assert.ErrorIs(t, err, vault.ErrInvalidKey)

			assert.Equal(t, "****6623", v.Mask("4051885600446623"))
		})
	}
}

func TestVault_Fingerprint(t *testing.T) {
	v := vault.NewVault(vault.Config{Key: testKey()})

	a, err := v.Fingerprint("token-a")
	require.NoError(t, err)
	again, err := v.Fingerprint("token-a")
	require.NoError(t, err)
	b, err := v.Fingerprint("token-b")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestMask(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain digits", input: "4051885600446623", expected: "****6623"},
		{name: "gateway masked", input: "XXXXXXXXXXXX6623", expected: "****6623"},
		{name: "with separators", input: "4051-8856-0044-6623", expected: "****6623"},
		{name: "too short", input: "12", expected: "****"},
		{name: "empty", input: "", expected: "****"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, vault.Mask(tc.input))
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "tb****en", vault.Redact("tbk-permanent-token"))
	assert.Equal(t, "****", vault.Redact("abc"))
}
