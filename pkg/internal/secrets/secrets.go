// Package secrets 负责服务账号口令的对称加密.
// 使用 nacl/secretbox（XSalsa20 + Poly1305），密钥来自配置中的 base64 编码 32 字节.
// 密文格式：base64(nonce[24] || box)，入库为文本列.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrInvalidKey 密钥缺失或长度错误.
	ErrInvalidKey = errors.New("secrets: encryption key must be base64 of 32 bytes")
	// ErrDecryptFailed 密文损坏或密钥不匹配.
	ErrDecryptFailed = errors.New("secrets: decrypt failed")
)

// Box 持有解码后的密钥，提供加解密操作.
type Box struct {
	key [keySize]byte
}

// New 解析 base64 编码的密钥.
func New(encodedKey string) (*Box, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil || len(raw) != keySize {
		return nil, ErrInvalidKey
	}

	b := &Box{}
	copy(b.key[:], raw)

	return b, nil
}

// GenerateKey 生成一个新的随机密钥，base64 编码，供部署时配置.
func GenerateKey() (string, error) {
	raw := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Encrypt 加密明文，每次调用使用随机 nonce.
func (b *Box) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 Encrypt 产出的密文.
func (b *Box) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < nonceSize {
		return "", ErrDecryptFailed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecryptFailed
	}

	return string(plain), nil
}
