// Package crypto collects the hashing and secret-handling primitives the
// gateway shares: webhook signatures, operator password hashes, VERP bounce
// tags, and AES-GCM sealing of stored webhook secrets.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades hash time for brute-force resistance. 14 keeps a single
// verification around 100ms on current hardware.
const bcryptCost = 14

// ComputeHMAC256 returns the hex HMAC-SHA256 signature of payload. Webhook
// deliveries carry this value in the X-Webhook-Signature header.
func ComputeHMAC256(payload []byte, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC recomputes the signature for payload and compares it to the
// provided one in constant time.
func VerifyHMAC(secretKey string, payload []byte, providedSig string) bool {
	expected := ComputeHMAC256(payload, secretKey)
	return hmac.Equal([]byte(expected), []byte(providedSig))
}

// HashPassword bcrypt-hashes an operator password for OPS_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches the bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerpTag derives the local-part suffix of a variable return path. The tag is
// the first 16 hex characters of sha256("<recipient>:<unix millis>"), enough
// entropy to correlate an asynchronous bounce back to a single send.
func VerpTag(recipient string, at time.Time) string {
	sum := sha256.Sum256([]byte(recipient + ":" + strconv.FormatInt(at.UnixMilli(), 10)))
	return hex.EncodeToString(sum[:])[:16]
}

// aesKey derives the fixed-size AES-256 key from a passphrase.
func aesKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// EncryptString seals str with AES-256-GCM under a key derived from
// passphrase and returns hex(nonce || ciphertext).
func EncryptString(str, passphrase string) (string, error) {
	block, err := aes.NewCipher(aesKey(passphrase))
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("encrypt nonce: %w", err)
	}
	return hex.EncodeToString(gcm.Seal(nonce, nonce, []byte(str), nil)), nil
}

// Decrypt opens data produced by EncryptString, after hex decoding. The nonce
// is expected as the data prefix.
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	block, err := aes.NewCipher(aesKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("decrypt: data shorter than nonce")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// DecryptFromHexString reverses EncryptString.
func DecryptFromHexString(str, passphrase string) (string, error) {
	if str == "" {
		return "", fmt.Errorf("decrypt: empty ciphertext")
	}
	data, err := hex.DecodeString(str)
	if err != nil {
		return "", fmt.Errorf("decrypt hex: %w", err)
	}
	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
