package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTallyIntegrity is returned when a stored tally token cannot be
// decrypted: missing delimiter, bad hex, ragged ciphertext or bad padding.
var ErrTallyIntegrity = errors.New("tally token failed integrity check")

const tokenDelimiter = ":"

// TallyCipher encrypts and decrypts a single non-negative vote counter
// with AES-256-CBC. Tokens are hex(iv) + ":" + hex(ciphertext). This is a
// confidentiality-only primitive: there is no MAC, so a tampered token
// surfaces as ErrTallyIntegrity or a garbage count, not a verified reject.
type TallyCipher struct {
	key []byte
}

func NewTallyCipher(secret string) *TallyCipher {
	return &TallyCipher{key: deriveKey(secret)}
}

// deriveKey pads or truncates the configured secret to exactly 32 bytes.
// Kept for byte compatibility with tallies already at rest; swap in a real
// KDF here if stored tokens can be migrated.
func deriveKey(secret string) []byte {
	key := make([]byte, 32)
	copy(key, secret)
	return key
}

func (c *TallyCipher) Encrypt(count int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("cannot encrypt negative tally %d", count)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	plaintext := pkcs7Pad([]byte(strconv.Itoa(count)), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return hex.EncodeToString(iv) + tokenDelimiter + hex.EncodeToString(ciphertext), nil
}

func (c *TallyCipher) Decrypt(token string) (int, error) {
	ivHex, ciphertextHex, found := strings.Cut(token, tokenDelimiter)
	if !found {
		return 0, ErrTallyIntegrity
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return 0, ErrTallyIntegrity
	}
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return 0, ErrTallyIntegrity
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return 0, err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return 0, ErrTallyIntegrity
	}

	count, err := strconv.Atoi(string(unpadded))
	if err != nil || count < 0 {
		return 0, ErrTallyIntegrity
	}
	return count, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errors.New("invalid padding byte")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("inconsistent padding")
		}
	}
	return data[:len(data)-padding], nil
}
