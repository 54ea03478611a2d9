package extractor

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"

	"github.com/pkg/errors"
)

const saltedPrefix = "Salted__"

// DecryptSources decrypts an OpenSSL style "Salted__" AES-256-CBC payload,
// deriving key and iv from passphrase with EVP_BytesToKey over MD5.
func DecryptSources(encrypted, passphrase string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ciphertext")
	}
	if len(raw) < 16 || !bytes.HasPrefix(raw, []byte(saltedPrefix)) {
		return nil, errors.New("ciphertext is not salted")
	}

	salt := raw[8:16]
	ciphertext := raw[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of block size")
	}

	key, iv := bytesToKey([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext)
}

// bytesToKey returns a 32 byte key and a 16 byte iv
func bytesToKey(password, salt []byte) ([]byte, []byte) {
	var derived, digest []byte
	for len(derived) < 48 {
		h := md5.New()
		h.Write(digest)
		h.Write(password)
		h.Write(salt)
		digest = h.Sum(nil)
		derived = append(derived, digest...)
	}
	return derived[:32], derived[32:48]
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, errors.New("invalid padding, wrong key?")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding, wrong key?")
		}
	}
	return data[:len(data)-n], nil
}
