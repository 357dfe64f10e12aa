package domain

import (
	"regexp"
	"time"
)

// EmailPattern is the lexical rule every stored email must satisfy.
var EmailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string

	Avatar   string
	Birthday string
	Skype    string
	Phone    string

	AccessToken      string
	RefreshToken     string
	SessionExpiresAt *time.Time

	// Federated is set once the account has signed in through Google.
	Federated bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the projection of a User that is safe to return to clients.
type Profile struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	Birthday     string `json:"birthday"`
	Skype        string `json:"skype"`
	Phone        string `json:"phone"`
	IsGoogleAuth bool   `json:"isGoogleAuth"`
}

func (u *User) Profile() Profile {
	return Profile{
		Email:        u.Email,
		Username:     u.Username,
		Avatar:       u.Avatar,
		Birthday:     u.Birthday,
		Skype:        u.Skype,
		Phone:        u.Phone,
		IsGoogleAuth: u.Federated,
	}
}

// TokenPair is an access/refresh pair minted from the same claim.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Session is returned by register, login and refresh.
type Session struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         Profile `json:"user"`
}

// ProfileUpdate carries the editable profile fields. Email is always required.
type ProfileUpdate struct {
	Email    string
	Username *string
	Avatar   *string
	Birthday *string
	Skype    *string
	Phone    *string
}

// Owner is the public part of a user embedded in tasks and reviews.
type Owner struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}
