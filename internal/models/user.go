// Package models содержит доменные структуры платформы: пользователя,
// подписку, элемент каталога и тарифный план.
package models

import "time"

// Role роль пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid проверяет, что роль входит в допустимый набор.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет зарегистрированного пользователя.
// Email и PasswordHash отсутствуют у пользователей, вошедших через внешнего провайдера (OpenID).
type User struct {
	ID           int64      `json:"id"`
	OpenID       *string    `json:"openId,omitempty"`
	Name         string     `json:"name"`
	Email        *string    `json:"email,omitempty"`
	LoginMethod  *string    `json:"loginMethod,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash *string    `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastSignedIn *time.Time `json:"lastSignedIn,omitempty"`
}

// EmailOrEmpty возвращает email или пустую строку.
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Identity аутентифицированный пользователь текущего запроса.
// nil *Identity означает анонимный запрос.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IdentityOf строит Identity по записи пользователя.
func IdentityOf(u *User) *Identity {
	return &Identity{
		ID:    u.ID,
		Email: u.EmailOrEmpty(),
		Name:  u.Name,
		Role:  u.Role,
	}
}
