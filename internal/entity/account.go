package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type Account struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Lastname        string     `json:"lastname"`
	JobTitle        string     `json:"jobTitle,omitempty"`
	Telephone       string     `json:"telephone,omitempty"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	EntityName      string     `json:"entityName"`
	EntityType      EntityType `json:"entityType"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	EntityID        *uuid.UUID `json:"entityId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Registration struct {
	Name       string
	Lastname   string
	EntityName string
	EntityType EntityType
	JobTitle   string
	Telephone  string
	Email      string
	Password   string
}

type AccessToken struct {
	Token     string    `json:"accessToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Session struct {
	Authenticated bool     `json:"authenticated"`
	Verified      bool     `json:"verified"`
	Account       *Account `json:"user,omitempty"`
}
