package vault

import "errors"

const (
	ErrCodeInvalidKey        = "VAULT_INVALID_KEY"
	ErrCodeCorruptCiphertext = "VAULT_CORRUPT_CIPHERTEXT"
)

var (
	ErrInvalidKey        = errors.New(ErrCodeInvalidKey)
	ErrCorruptCiphertext = errors.New(ErrCodeCorruptCiphertext)
)
