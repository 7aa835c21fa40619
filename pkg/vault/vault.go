package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize    = chacha20poly1305.KeySize
	maskPrefix = "****"
)

type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	Fingerprint(value string) (string, error)
	Mask(cardNumber string) string
}

type vault struct {
	key []byte
}

// NewVault never fails on a bad key. Operations that need the key report
// ErrInvalidKey instead, so a misconfigured process still serves masked reads.
func NewVault(cfg Config) Vault {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.Key))
	if err != nil || len(key) != KeySize {
		return &vault{}
	}

	return &vault{key: key}
}

func (v *vault) Encrypt(plaintext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (v *vault) Decrypt(ciphertext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrCorruptCiphertext
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCorruptCiphertext
	}

	return string(plain), nil
}

// Fingerprint is a keyed hash used to look tokens up by equality. Ciphertexts
// carry a random nonce and cannot be compared directly.
func (v *vault) Fingerprint(value string) (string, error) {
	if len(v.key) != KeySize {
		return "", ErrInvalidKey
	}

	h, err := blake2b.New256(v.key)
	if err != nil {
		return "", ErrInvalidKey
	}
	h.Write([]byte(value))

	return hex.EncodeToString(h.Sum(nil)), nil
}

func (v *vault) Mask(cardNumber string) string {
	return Mask(cardNumber)
}

func (v *vault) aead() (cipher.AEAD, error) {
	if len(v.key) != KeySize {
		return nil, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	return aead, nil
}

// Mask keeps the last four digits only. Separators and gateway masking
// characters are ignored.
func Mask(cardNumber string) string {
	digits := make([]byte, 0, len(cardNumber))
	for i := 0; i < len(cardNumber); i++ {
		if cardNumber[i] >= '0' && cardNumber[i] <= '9' {
			digits = append(digits, cardNumber[i])
		}
	}

	if len(digits) < 4 {
		return maskPrefix
	}

	return maskPrefix + string(digits[len(digits)-4:])
}

// Redact is for log fields that must show some shape of a secret.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return maskPrefix
	}

	return secret[:2] + maskPrefix + secret[len(secret)-2:]
}
