package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

var (
	ErrInvalidKey    = errors.New("encryption key must be 32 bytes (64 hex chars)")
	ErrNoSecret      = errors.New("payment method has no encrypted data")
	ErrDecryptFailed = errors.New("failed to decrypt payment secret")
)

// SecretCipher seals payment secrets. associated is authenticated but not
// encrypted; it binds a ciphertext to its owner.
type SecretCipher interface {
	Encrypt(plaintext, associated string) (ciphertext, iv string, err error)
	Decrypt(ciphertext, iv, associated string) (plaintext string, err error)
}

// AESGCMCipher implements SecretCipher with AES-256-GCM.
type AESGCMCipher struct {
	aead cipher.AEAD
}

func NewAESGCMCipher(hexKey string) (*AESGCMCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key format: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMCipher{aead: aead}, nil
}

func (c *AESGCMCipher) Encrypt(plaintext, associated string) (string, string, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", err
	}
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), []byte(associated))
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(iv), nil
}

func (c *AESGCMCipher) Decrypt(ciphertextB64, ivB64, associated string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	if len(iv) != c.aead.NonceSize() {
		return "", fmt.Errorf("%w: bad iv length %d", ErrDecryptFailed, len(iv))
	}
	plaintext, err := c.aead.Open(nil, iv, sealed, []byte(associated))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return string(plaintext), nil
}

// SealPaymentSecret encrypts secret into pm, bound to pm's owner.
func SealPaymentSecret(c SecretCipher, pm *model.PaymentMethod, secret string) error {
	ciphertext, iv, err := c.Encrypt(secret, pm.UserID)
	if err != nil {
		return err
	}
	pm.EncryptedData = ciphertext
	pm.EncryptionIV = iv
	return nil
}

// OpenPaymentSecret recovers the secret sealed into pm.
func OpenPaymentSecret(c SecretCipher, pm *model.PaymentMethod) (string, error) {
	if pm.EncryptedData == "" || pm.EncryptionIV == "" {
		return "", ErrNoSecret
	}
	return c.Decrypt(pm.EncryptedData, pm.EncryptionIV, pm.UserID)
}
