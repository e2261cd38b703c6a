package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"

func newCodec(t *testing.T, c Cipher) *CardCodec {
	t.Helper()
	codec, err := NewCardCodec(testKey, c, false)
	require.NoError(t, err)
	return codec
}

func TestNewCardCodec_RejectsBadKeys(t *testing.T) {
	_, err := NewCardCodec("not-hex", CipherGCM, false)
	require.ErrorIs(t, err, ErrCodec)

	_, err = NewCardCodec("a1b2c3", CipherGCM, false)
	require.ErrorIs(t, err, ErrCodec)

	_, err = NewCardCodec(testKey, Cipher("des"), false)
	require.ErrorIs(t, err, ErrCodec)
}

func TestGenerate(t *testing.T) {
	codec := newCodec(t, CipherGCM)
	for i := 0; i < 50; i++ {
		number, err := codec.Generate()
		require.NoError(t, err)
		require.Len(t, number, CardNumberLength)
		require.True(t, isCardNumber(number), number)
	}
}

func TestGenerate_Luhn(t *testing.T) {
	codec, err := NewCardCodec(testKey, CipherGCM, true)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		number, err := codec.Generate()
		require.NoError(t, err)
		require.True(t, IsValidLuhn(number), number)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	for _, c := range []Cipher{CipherGCM, CipherCBC} {
		t.Run(string(c), func(t *testing.T) {
			codec := newCodec(t, c)
			for i := 0; i < 20; i++ {
				number, err := codec.Generate()
				require.NoError(t, err)

				encrypted, err := codec.Encrypt(number)
				require.NoError(t, err)
				require.NotEqual(t, number, encrypted)
				require.NotContains(t, encrypted, number)

				decrypted, err := codec.Decrypt(encrypted)
				require.NoError(t, err)
				require.Equal(t, number, decrypted)
			}
		})
	}
}

func TestEncrypt_RejectsNonCardNumbers(t *testing.T) {
	codec := newCodec(t, CipherGCM)
	for _, in := range []string{"", "123", "12345678901234567", "1234abcd90123456"} {
		_, err := codec.Encrypt(in)
		require.ErrorIs(t, err, ErrCodec, in)
	}
}

func TestDecrypt_Failures(t *testing.T) {
	codec := newCodec(t, CipherGCM)
	other, err := NewCardCodec(strings.Repeat("0f", 32), CipherGCM, false)
	require.NoError(t, err)

	encrypted, err := codec.Encrypt("1234567890123456")
	require.NoError(t, err)

	_, err = other.Decrypt(encrypted)
	require.ErrorIs(t, err, ErrCodec)

	_, err = codec.Decrypt("")
	require.ErrorIs(t, err, ErrCodec)

	_, err = codec.Decrypt("zz")
	require.ErrorIs(t, err, ErrCodec)

	_, err = codec.Decrypt("abcd")
	require.ErrorIs(t, err, ErrCodec)

	cbc := newCodec(t, CipherCBC)
	_, err = cbc.Decrypt(strings.Repeat("00", 20))
	require.ErrorIs(t, err, ErrCodec)
}

func TestMaskCardNumber(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1234567890123456", "**** **** **** 3456"},
		{"", "****"},
		{"1", "****"},
		{"123", "****"},
		{"1234", "**** **** **** 1234"},
		{"ab-cdefgh", "**** **** **** efgh"},
	}
	for _, c := range cases {
		require.Equal(t, c.out, MaskCardNumber(c.in), c.in)
	}
}

func TestIsValidLuhn(t *testing.T) {
	const valid = "4532015112830366"
	require.True(t, IsValidLuhn(valid))

	for i := 0; i < len(valid); i++ {
		b := []byte(valid)
		b[i] = '0' + (b[i]-'0'+1)%10
		require.False(t, IsValidLuhn(string(b)), string(b))
	}

	require.False(t, IsValidLuhn("453201511283036"))
	require.False(t, IsValidLuhn("45320151128303660"))
	require.False(t, IsValidLuhn("45320151128a0366"))
}
