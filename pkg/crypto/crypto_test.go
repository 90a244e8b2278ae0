package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHMAC256(t *testing.T) {
	t.Run("matches the RFC 4231 test vector", func(t *testing.T) {
		// RFC 4231 test case 2
		got := ComputeHMAC256([]byte("what do ya want for nothing?"), "Jefe")
		assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
	})

	t.Run("always yields 64 hex characters", func(t *testing.T) {
		for _, payload := range [][]byte{nil, []byte(""), []byte(`{"event":"bounced"}`)} {
			sig := ComputeHMAC256(payload, "whsec_test")
			assert.Len(t, sig, 64)
			assert.Equal(t, strings.ToLower(sig), sig, "signature must be lowercase hex")
		}
	})

	t.Run("key changes the signature", func(t *testing.T) {
		payload := []byte(`{"event":"bounced"}`)
		assert.NotEqual(t, ComputeHMAC256(payload, "key-a"), ComputeHMAC256(payload, "key-b"))
	})
}

func TestVerifyHMAC(t *testing.T) {
	payload := []byte(`{"event":"bounced","recipient":"user@example.com"}`)
	secret := "whsec_9d2739839dec58b9"
	sig := ComputeHMAC256(payload, secret)

	t.Run("accepts a matching signature", func(t *testing.T) {
		assert.True(t, VerifyHMAC(secret, payload, sig))
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		tampered := []byte(`{"event":"delivered","recipient":"user@example.com"}`)
		assert.False(t, VerifyHMAC(secret, tampered, sig))
	})

	t.Run("rejects the wrong key", func(t *testing.T) {
		assert.False(t, VerifyHMAC("other-secret", payload, sig))
	})

	t.Run("rejects an empty signature", func(t *testing.T) {
		assert.False(t, VerifyHMAC(secret, payload, ""))
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	t.Run("round trips", func(t *testing.T) {
		assert.True(t, CheckPasswordHash("hunter2", hash))
	})

	t.Run("rejects the wrong password", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("hunter3", hash))
	})

	t.Run("rejects a malformed hash", func(t *testing.T) {
		assert.False(t, CheckPasswordHash("hunter2", "not-a-bcrypt-hash"))
	})

	t.Run("rejects passwords beyond the bcrypt limit", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("x", 73))
		assert.Error(t, err)
	})
}

func TestVerpTag(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	tag := VerpTag("user@example.com", at)

	t.Run("is 16 lowercase hex characters", func(t *testing.T) {
		require.Len(t, tag, 16)
		for _, c := range tag {
			valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
			assert.True(t, valid, "unexpected character %q", c)
		}
	})

	t.Run("is deterministic for the same send", func(t *testing.T) {
		assert.Equal(t, tag, VerpTag("user@example.com", at))
	})

	t.Run("differs across timestamps", func(t *testing.T) {
		assert.NotEqual(t, tag, VerpTag("user@example.com", at.Add(time.Millisecond)))
	})

	t.Run("differs across recipients", func(t *testing.T) {
		assert.NotEqual(t, tag, VerpTag("other@example.com", at))
	})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		str  string
	}{
		{name: "webhook secret", str: "whsec_9d2739839dec58b9"},
		{name: "empty string", str: ""},
		{name: "non-ascii", str: "pässwörd é世界 !@#$%^&*()"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := EncryptString(tc.str, "passphrase-123")
			require.NoError(t, err)
			require.NotEmpty(t, sealed)
			assert.NotContains(t, sealed, tc.str, "ciphertext must not leak the plaintext")

			opened, err := DecryptFromHexString(sealed, "passphrase-123")
			require.NoError(t, err)
			assert.Equal(t, tc.str, opened)
		})
	}

	t.Run("nonce randomizes the ciphertext", func(t *testing.T) {
		first, err := EncryptString("same input", "passphrase-123")
		require.NoError(t, err)
		second, err := EncryptString("same input", "passphrase-123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestDecryptFromHexStringErrors(t *testing.T) {
	sealed, err := EncryptString("secret", "passphrase-123")
	require.NoError(t, err)

	tests := []struct {
		name       string
		str        string
		passphrase string
	}{
		{name: "empty ciphertext", str: "", passphrase: "passphrase-123"},
		{name: "not hex", str: "not a hex string", passphrase: "passphrase-123"},
		{name: "shorter than the nonce", str: "abcd", passphrase: "passphrase-123"},
		{name: "wrong passphrase", str: sealed, passphrase: "other passphrase"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecryptFromHexString(tc.str, tc.passphrase)
			assert.Error(t, err)
		})
	}
}
