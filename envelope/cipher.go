// File: envelope/cipher.go
// Package envelope
// Author: momentics <momentics@gmail.com>
//
// Key/IV derivation and the continuous AES-CFB stream used by the
// binary envelope's optional encryption.
//
// golang.org/x/crypto/sha3 derives the key and IV from the caller's
// passphrase strings rather than reaching for crypto/sha256.

package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"sync"

	"golang.org/x/crypto/sha3"
)

// binaryCipher wraps one AES-256-CFB encrypt stream and one decrypt
// stream. Each is continuous across successive Seal/Open calls on the
// SAME instance, matching the "advances its own stream independently"
// clone rule: Clone mints a brand new binaryCipher (fresh streams
// re-seeded from the IV) rather than sharing this one's position.
type binaryCipher struct {
	key [32]byte
	iv  [16]byte

	mu  sync.Mutex
	enc cipher.Stream
	dec cipher.Stream
}

// newBinaryCipher derives a 256-bit key and a 128-bit IV from the given
// strings via a 256-bit digest. It returns ok=false when either string
// is empty, in which case encryption is disabled and only compression
// remains available to the caller.
func newBinaryCipher(key, iv string) (*binaryCipher, bool) {
	if key == "" || iv == "" {
		return nil, false
	}
	keyDigest := sha3.Sum256([]byte(key))
	ivDigest := sha3.Sum256([]byte(iv))

	bc := &binaryCipher{}
	copy(bc.key[:], keyDigest[:])
	copy(bc.iv[:], ivDigest[:16])
	bc.reseed()
	return bc, true
}

func (bc *binaryCipher) reseed() {
	block, err := aes.NewCipher(bc.key[:])
	if err != nil {
		panic(err) // 32-byte key is always valid for AES-256
	}
	bc.enc = cipher.NewCFBEncrypter(block, bc.iv[:])
	bc.dec = cipher.NewCFBDecrypter(block, bc.iv[:])
}

// clone returns an independent cipher over the same key/IV, with its
// own fresh stream position, for a newly-upgraded connection.
func (bc *binaryCipher) clone() *binaryCipher {
	out := &binaryCipher{key: bc.key, iv: bc.iv}
	out.reseed()
	return out
}

func (bc *binaryCipher) seal(plaintext []byte) []byte {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]byte, len(plaintext))
	bc.enc.XORKeyStream(out, plaintext)
	return out
}

func (bc *binaryCipher) open(ciphertext []byte) []byte {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	out := make([]byte, len(ciphertext))
	bc.dec.XORKeyStream(out, ciphertext)
	return out
}

// pkcs7Pad pads src to a multiple of aes.BlockSize.
func pkcs7Pad(src []byte) []byte {
	padLen := aes.BlockSize - len(src)%aes.BlockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(src, padding...)
}

// pkcs7Unpad strips PKCS7 padding, rejecting malformed padding.
func pkcs7Unpad(src []byte) ([]byte, bool) {
	n := len(src)
	if n == 0 || n%aes.BlockSize != 0 {
		return nil, false
	}
	padLen := int(src[n-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > n {
		return nil, false
	}
	for _, b := range src[n-padLen:] {
		if int(b) != padLen {
			return nil, false
		}
	}
	return src[:n-padLen], true
}
