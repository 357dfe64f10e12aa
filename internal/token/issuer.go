// Package token mints and verifies the HS256 access and refresh tokens.
//
// Access and refresh tokens are signed with different secrets, so a leaked
// refresh secret cannot forge access tokens and vice versa. The only claim
// carried besides the registered time claims is the user id in "sub".
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

const (
	DefaultAccessTTL  = 23 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalid       = errors.New("token is invalid or expired")
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrSharedSecret  = errors.New("access and refresh secrets must differ")
)

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, ErrSharedSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (i *Issuer) IssueAccessToken(userID string) (string, error) {
	signed, _, err := i.sign(userID, i.accessKey, i.accessTTL)
	return signed, err
}

func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	signed, _, err := i.sign(userID, i.refreshKey, i.refreshTTL)
	return signed, err
}

// IssuePair mints both tokens for userID.
func (i *Issuer) IssuePair(userID string) (domain.TokenPair, error) {
	access, _, err := i.sign(userID, i.accessKey, i.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, exp, err := i.sign(userID, i.refreshKey, i.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: exp}, nil
}

// VerifyAccessToken returns the user id of a valid access token.
func (i *Issuer) VerifyAccessToken(raw string) (string, error) {
	return i.verify(raw, i.accessKey)
}

// VerifyRefreshToken returns the user id of a valid refresh token.
func (i *Issuer) VerifyRefreshToken(raw string) (string, error) {
	return i.verify(raw, i.refreshKey)
}

func (i *Issuer) sign(userID string, key []byte, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) verify(raw string, key []byte) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalid
	}
	if claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
