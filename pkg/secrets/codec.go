// Package secrets provides the codec used for per-account app credentials at
// rest. Blob layout is versioned: 0x01 | nonce | ciphertext (AES-GCM keyed by
// sha256 of the configured key).
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

type Codec struct {
	key []byte
}

// NewCodec returns a codec for the given key. An empty key yields a nil codec;
// callers treat nil as "store plaintext disabled, secrets unavailable".
func NewCodec(key string) *Codec {
	if key == "" {
		return nil
	}
	return &Codec{key: []byte(key)}
}

func (c *Codec) gcm() (cipher.AEAD, error) {
	h := sha256.Sum256(c.key)
	block, err := aes.NewCipher(h[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 1+len(nonce)+len(ct))
	out[0] = 0x01
	copy(out[1:1+len(nonce)], nonce)
	copy(out[1+len(nonce):], ct)
	return out, nil
}

func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < 2 {
		return nil, fmt.Errorf("invalid blob")
	}
	if blob[0] != 0x01 {
		return nil, fmt.Errorf("unsupported version %d", blob[0])
	}
	gcm, err := c.gcm()
	if err != nil {
		return nil, err
	}
	if len(blob) < 1+gcm.NonceSize() {
		return nil, fmt.Errorf("short nonce")
	}
	nonce := blob[1 : 1+gcm.NonceSize()]
	ct := blob[1+gcm.NonceSize():]
	return gcm.Open(nil, nonce, ct, nil)
}

// EncryptString is a convenience wrapper for string secrets.
func (c *Codec) EncryptString(s string) ([]byte, error) { return c.Encrypt([]byte(s)) }

func (c *Codec) DecryptString(blob []byte) (string, error) {
	b, err := c.Decrypt(blob)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
