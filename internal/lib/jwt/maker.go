// Package jwt реализует генерацию и парсинг JWT токенов сессии.
//
// Токен содержит идентификатор, email, имя и роль пользователя
// и подписывается HS256 секретным ключом.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL срок жизни токена сессии.
const DefaultTTL = 7 * 24 * time.Hour

// ErrEmptySecret возвращается при попытке подписать токен пустым ключом.
var ErrEmptySecret = errors.New("jwt secret is empty")

// Payload данные пользователя, которые кладутся в токен.
type Payload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CustomClaims описывает claims токена сессии.
type CustomClaims struct {
	Payload
	jwt.RegisteredClaims
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateToken(p Payload) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа и TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl. Нулевой ttl заменяется на DefaultTTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// GenerateToken создаёт подписанный токен для пользователя.
func (j *MakerImpl) GenerateToken(p Payload) (string, error) {
	const op = "jwt.GenerateToken"
	if j.secretKey == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	now := j.now()
	claims := CustomClaims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись, алгоритм и срок действия токена
// и возвращает его claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	if j.secretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
