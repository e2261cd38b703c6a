package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// CardNumberLength is the number of digits in a card number
const CardNumberLength = 16

// ErrCodec marks every cryptographic or encoding failure of the card codec
var ErrCodec = errors.New("card codec failure")

// Cipher selects the symmetric scheme used to protect card numbers
type Cipher string

const (
	CipherGCM Cipher = "gcm"
	CipherCBC Cipher = "cbc"
)

// CardCodec generates, encrypts, decrypts and masks card numbers.
// It owns the key material; nothing else in the process sees it.
type CardCodec struct {
	key    []byte
	cipher Cipher
	luhn   bool
}

// NewCardCodec builds a codec from a hex encoded AES key.
// When luhn is set Generate only returns numbers passing the Luhn check.
func NewCardCodec(hexKey string, c Cipher, luhn bool) (*CardCodec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode key: %v", ErrCodec, err)
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption key must be 16, 24, or 32 bytes, got %d", ErrCodec, len(key))
	}
	switch c {
	case "":
		c = CipherGCM
	case CipherGCM, CipherCBC:
	default:
		return nil, fmt.Errorf("%w: unsupported cipher %q", ErrCodec, c)
	}
	return &CardCodec{key: key, cipher: c, luhn: luhn}, nil
}

// Generate returns a fresh 16-digit card number drawn from crypto/rand
func (c *CardCodec) Generate() (string, error) {
	for {
		number, err := randomDigits(CardNumberLength)
		if err != nil {
			return "", fmt.Errorf("%w: failed to generate random digits: %v", ErrCodec, err)
		}
		if !c.luhn || IsValidLuhn(number) {
			return number, nil
		}
	}
}

// randomDigits draws each digit uniformly from 0-9.
// Bytes >= 250 are rejected so that b%10 has no modulo bias.
func randomDigits(count int) (string, error) {
	const threshold = 250
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 32)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			if buf[i] < threshold {
				sb.WriteByte('0' + buf[i]%10)
			}
		}
	}
	return sb.String(), nil
}

// Encrypt encrypts a card number and returns hex(nonce || ciphertext)
func (c *CardCodec) Encrypt(cardNumber string) (string, error) {
	if !isCardNumber(cardNumber) {
		return "", fmt.Errorf("%w: card number must be %d digits", ErrCodec, CardNumberLength)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create cipher: %v", ErrCodec, err)
	}
	if c.cipher == CipherCBC {
		return encryptCBC(block, []byte(cardNumber))
	}
	return encryptGCM(block, []byte(cardNumber))
}

// Decrypt reverses Encrypt. A wrong key or a malformed blob yields ErrCodec.
func (c *CardCodec) Decrypt(encrypted string) (string, error) {
	if len(encrypted) == 0 {
		return "", fmt.Errorf("%w: encrypted data is empty", ErrCodec)
	}
	data, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode hex: %v", ErrCodec, err)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create cipher: %v", ErrCodec, err)
	}

	var plaintext []byte
	if c.cipher == CipherCBC {
		plaintext, err = decryptCBC(block, data)
	} else {
		plaintext, err = decryptGCM(block, data)
	}
	if err != nil {
		return "", err
	}
	// CBC has no integrity check, a wrong key can still unpad cleanly
	if !isCardNumber(string(plaintext)) {
		return "", fmt.Errorf("%w: decrypted value is not a card number", ErrCodec)
	}
	return string(plaintext), nil
}

func encryptGCM(block cipher.Block, data []byte) (string, error) {
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create gcm: %v", ErrCodec, err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: failed to generate nonce: %v", ErrCodec, err)
	}
	return hex.EncodeToString(gcm.Seal(nonce, nonce, data, nil)), nil
}

func decryptGCM(block cipher.Block, data []byte) ([]byte, error) {
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gcm: %v", ErrCodec, err)
	}
	if len(data) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fmt.Errorf("%w: encrypted data too short: %d bytes", ErrCodec, len(data))
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open ciphertext: %v", ErrCodec, err)
	}
	return plaintext, nil
}

// encryptCBC uses AES-CBC with PKCS#7 padding and a random IV
func encryptCBC(block cipher.Block, data []byte) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: failed to generate IV: %v", ErrCodec, err)
	}

	padding := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data), len(data)+padding)
	copy(padded, data)
	for i := 0; i < padding; i++ {
		padded = append(padded, byte(padding))
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(append(iv, ciphertext...)), nil
}

func decryptCBC(block cipher.Block, data []byte) ([]byte, error) {
	if len(data) < 2*aes.BlockSize {
		return nil, fmt.Errorf("%w: encrypted data too short: %d bytes", ErrCodec, len(data))
	}
	iv, ciphertext := data[:aes.BlockSize], data[aes.BlockSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: invalid ciphertext length: %d bytes", ErrCodec, len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padding := int(plaintext[len(plaintext)-1])
	if padding > aes.BlockSize || padding == 0 {
		return nil, fmt.Errorf("%w: invalid padding value: %d", ErrCodec, padding)
	}
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if int(plaintext[i]) != padding {
			return nil, fmt.Errorf("%w: invalid padding bytes", ErrCodec)
		}
	}
	return plaintext[:len(plaintext)-padding], nil
}

// MaskCardNumber keeps only the last four characters visible
func MaskCardNumber(cardNumber string) string {
	r := []rune(cardNumber)
	if len(r) < 4 {
		return "****"
	}
	return "**** **** **** " + string(r[len(r)-4:])
}

// IsValidLuhn checks the Luhn checksum of a 16-digit card number
func IsValidLuhn(cardNumber string) bool {
	if !isCardNumber(cardNumber) {
		return false
	}
	sum := 0
	for i := 0; i < len(cardNumber); i++ {
		d := int(cardNumber[len(cardNumber)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

func isCardNumber(s string) bool {
	if len(s) != CardNumberLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
