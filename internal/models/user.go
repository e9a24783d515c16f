// Package models содержит доменную модель платформы: пользователей и их
// учетные данные, подписки, платежи, курсы и лекции.
// Структуры используются бизнес-логикой и слоем хранения.
package models

import (
	"strings"
	"time"
)

// Role закрытый набор ролей пользователя.
type Role string

const (
	// RoleLearner назначается каждому зарегистрированному пользователю.
	RoleLearner Role = "LEARNER"
	// RoleAdmin управляет курсами, видит платежи и статистику.
	RoleAdmin Role = "ADMIN"
)

// Valid проверяет, что r одна из известных ролей.
func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleAdmin
}

// DefaultAvatarURL показывается, пока пользователь не загрузил аватар.
const DefaultAvatarURL = "https://res.cloudinary.com/du9jzqlpt/image/upload/v1674647316/avatar_drzgxv.jpg"

// Media ссылка на объект в хранилище медиафайлов.
type Media struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// User внутреннее представление учетной записи. Всегда содержит хэш пароля,
// для ответов API используйте View.
type User struct {
	ID               string
	Email            string
	FullName         string
	PasswordHash     string
	Role             Role
	Avatar           Media
	Subscription     *Subscription
	ResetTokenDigest *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeEmail приводит адрес к нижнему регистру и обрезает пробелы.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin сообщает, что у пользователя роль ADMIN.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasActiveSubscription сообщает, что подписка пользователя активна.
func (u *User) HasActiveSubscription() bool {
	return u.Subscription != nil && u.Subscription.Status == SubscriptionActive
}

// HasDefaultAvatar сообщает, что аватар ни разу не загружался в хранилище.
func (u *User) HasDefaultAvatar() bool {
	return u.Avatar.SecureURL == "" || u.Avatar.SecureURL == DefaultAvatarURL
}

// UserView публичная проекция User без учетных данных.
type UserView struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FullName     string            `json:"fullName"`
	Role         Role              `json:"role"`
	Avatar       Media             `json:"avatar"`
	Subscription *SubscriptionView `json:"subscription,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// View возвращает сериализуемое представление пользователя.
func (u *User) View() UserView {
	v := UserView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Subscription != nil {
		sv := u.Subscription.View()
		v.Subscription = &sv
	}
	return v
}
