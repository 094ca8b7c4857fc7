// Package crypt provides AES-GCM authenticated encryption helpers.
//
// All ciphertext is base64url-encoded and includes the random nonce prefix,
// so a single string can be stored as a Redis value or a DB column.
//
// Usage:
//
//	box, err := crypt.New(cfg.AppKey)
//	enc, err := box.SealJSON(map[string]any{"otp": "123456"})
//	var out map[string]any
//	err = box.OpenJSON(enc, &out)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when decryption or authentication fails.
var ErrDecrypt = errors.New("crypt: decryption failed")

// ErrNoKey is returned by New when the secret is empty.
var ErrNoKey = errors.New("crypt: APP_KEY not configured")

// Box seals and opens values under one AES-256 key.
type Box struct {
	gcm cipher.AEAD
}

// New derives a 32-byte AES-256 key from secret via SHA-256.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrNoKey
	}
	k := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Box{gcm: gcm}, nil
}

// Seal encrypts data and returns base64url(nonce || ciphertext || tag).
func (b *Box) Seal(data []byte) (string, error) {
	nonce := make([]byte, b.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	out := b.gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (b *Box) Open(encoded string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecrypt
	}

	nonceSize := b.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecrypt
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plain, err := b.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// SealJSON marshals v to JSON then encrypts it.
func (b *Box) SealJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: marshal: %w", err)
	}
	return b.Seal(raw)
}

// OpenJSON decrypts encoded and unmarshals the result into dest.
func (b *Box) OpenJSON(encoded string, dest any) error {
	raw, err := b.Open(encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("crypt: unmarshal: %w", err)
	}
	return nil
}
