package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

type encryptedData struct {
	IV      string `json:"iv"`
	Data    string `json:"data"`
	AuthTag string `json:"authTag"`
}

// keyCipher seals private keys at rest with AES-GCM.
type keyCipher struct {
	key []byte
}

func newKeyCipher(hexKey string) (*keyCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid encryption key length %d", len(key))
	}
	return &keyCipher{key: key}, nil
}

func (c *keyCipher) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(ciphertext) - aesGCM.Overhead()

	data := encryptedData{
		IV:      base64.StdEncoding.EncodeToString(nonce),
		Data:    base64.StdEncoding.EncodeToString(ciphertext[:tagStart]),
		AuthTag: base64.StdEncoding.EncodeToString(ciphertext[tagStart:]),
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (c *keyCipher) decrypt(encryptedStr string) (string, error) {
	var data encryptedData
	if err := json.Unmarshal([]byte(encryptedStr), &data); err != nil {
		return "", err
	}

	nonce, err := base64.StdEncoding.DecodeString(data.IV)
	if err != nil {
		return "", err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(data.Data)
	if err != nil {
		return "", err
	}
	authTag, err := base64.StdEncoding.DecodeString(data.AuthTag)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plaintext, err := aesGCM.Open(nil, nonce, append(ciphertext, authTag...), nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
