// Package password реализует функции для хеширования и проверки паролей.
//
// Хеш хранится в виде "соль:ключ", где соль - 16 случайных байт в hex,
// ключ - 64 байта scrypt в hex. Сравнение выполняется за постоянное время.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16
	keyLength  = 64

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// ErrMismatch возвращается, если пароль не соответствует хешу.
var ErrMismatch = errors.New("password does not match")

// GetHash принимает пароль пользователя и возвращает его хеш в формате "соль:ключ".
func GetHash(password string) (string, error) {
	const op = "password.GetHash"

	rawSalt := make([]byte, saltLength)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	salt := hex.EncodeToString(rawSalt)

	key, err := derive(password, salt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return salt + ":" + hex.EncodeToString(key), nil
}

// CompareHash сравнивает сохранённый хеш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хешу, иначе ErrMismatch.
// Хеш неверного формата также даёт ErrMismatch.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"

	salt, key, ok := strings.Cut(originalHash, ":")
	if !ok || salt == "" || key == "" {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	expected, err := hex.DecodeString(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}

	derived, err := derive(externalPassword, salt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if subtle.ConstantTimeCompare(derived, expected) != 1 {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return nil
}

// Соль передаётся в scrypt как hex-строка, а не как декодированные байты.
func derive(password, salt string) ([]byte, error) {
	return scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
}
