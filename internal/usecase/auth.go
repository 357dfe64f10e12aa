package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/email"
	"github.com/goosetrack/goosetrack-api/internal/metrics"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
	"github.com/goosetrack/goosetrack-api/internal/password"
	"github.com/goosetrack/goosetrack-api/internal/repository"
	"github.com/goosetrack/goosetrack-api/internal/token"
)

// OAuthProvider is the third-party identity provider used for federated sign-in.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

type AuthUsecase struct {
	users       repository.UserRepository
	tokens      *token.Issuer
	hasher      *password.Hasher
	email       email.Sender
	provider    OAuthProvider
	frontendURL string
	logger      *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens *token.Issuer,
	hasher *password.Hasher,
	emailSender email.Sender,
	provider OAuthProvider,
	frontendURL string,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		email:       emailSender,
		provider:    provider,
		frontendURL: frontendURL,
		logger:      logger.With("component", "auth_usecase"),
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register creates a local account and signs it in.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (session *domain.Session, err error) {
	defer func() { observe("register", err) }()

	addr := normalizeEmail(in.Email)
	if _, err = u.users.FindByEmail(ctx, addr); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.users.Create(ctx, &domain.User{
		Email:        addr,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u.startSession(ctx, user)
}

// Login checks credentials and rotates the user's session. Unknown email and
// wrong password produce the same error.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, plain string) (session *domain.Session, err error) {
	defer func() { observe("login", err) }()

	user, err := u.users.FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// keep timing close to the found-user path
			_, _ = u.hasher.Compare(u.dummy(), plain)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := u.hasher.Compare(user.PasswordHash, plain)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return u.startSession(ctx, user)
}

// Logout clears both stored tokens.
func (u *AuthUsecase) Logout(ctx context.Context, userID string) (err error) {
	defer func() { observe("logout", err) }()

	if err = u.users.ClearTokens(ctx, userID); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Refresh exchanges the currently stored refresh token for a new pair. The
// swap is keyed on the presented token, so a superseded token never matches.
func (u *AuthUsecase) Refresh(ctx context.Context, rawRefresh string) (session *domain.Session, err error) {
	defer func() { observe("refresh", err) }()

	userID, err := u.tokens.VerifyRefreshToken(rawRefresh)
	if err != nil {
		return nil, domain.ErrRefreshInvalid
	}

	pair, err := u.tokens.IssuePair(userID)
	if err != nil {
		return nil, err
	}

	user, err := u.users.RotateRefreshToken(ctx, rawRefresh, pair)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrRefreshInvalid
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if user.ID != userID {
		u.logger.WarnContext(ctx, "refresh token subject mismatch", "subject", userID, "holder", user.ID)
		if clearErr := u.users.ClearTokens(ctx, user.ID); clearErr != nil {
			u.logger.ErrorContext(ctx, "clear mismatched session", "error", clearErr)
		}
		return nil, domain.ErrRefreshInvalid
	}

	return newSession(user, pair), nil
}

// ResetPassword replaces the password with a random one and mails it.
func (u *AuthUsecase) ResetPassword(ctx context.Context, emailAddr string) (err error) {
	defer func() { observe("reset_password", err) }()

	user, err := u.users.FindByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	plain, err := password.Generate()
	if err != nil {
		return err
	}
	hash, err := u.hasher.Hash(plain)
	if err != nil {
		return err
	}
	if err = u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err = u.email.Send(ctx, email.PasswordReset(user.Email, plain)); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// SendRemovalKey mails the confirmation key required by account removal.
// The key is the user's own id.
func (u *AuthUsecase) SendRemovalKey(ctx context.Context, user *domain.User) error {
	if err := u.email.Send(ctx, email.AccountRemovalKey(user.Email, user.ID)); err != nil {
		return fmt.Errorf("send removal key: %w", err)
	}
	return nil
}

// OAuthURL returns the provider consent page for state.
func (u *AuthUsecase) OAuthURL(state string) string {
	return u.provider.AuthCodeURL(state)
}

// OAuthCallback completes federated sign-in and returns the frontend URL the
// client is redirected to, carrying the new refresh token.
func (u *AuthUsecase) OAuthCallback(ctx context.Context, code string) (redirect string, err error) {
	defer func() { observe("oauth", err) }()

	profile, err := u.provider.Exchange(ctx, code)
	if err != nil {
		return "", domain.Upstream("Google authorization failed", err)
	}

	addr := normalizeEmail(profile.Email)
	user, err := u.users.FindByEmail(ctx, addr)
	switch {
	case err == nil:
		pair, err := u.tokens.IssuePair(user.ID)
		if err != nil {
			return "", err
		}
		if err := u.users.MarkFederated(ctx, user.ID, pair); err != nil {
			return "", fmt.Errorf("mark federated: %w", err)
		}
		return u.frontendRedirect(pair.RefreshToken)

	case errors.Is(err, domain.ErrUserNotFound):
		user, err = u.createFederated(ctx, addr, profile)
		if err != nil {
			return "", err
		}
		pair, err := u.tokens.IssuePair(user.ID)
		if err != nil {
			return "", err
		}
		if err := u.users.SetTokens(ctx, user.ID, pair); err != nil {
			return "", fmt.Errorf("store tokens: %w", err)
		}
		return u.frontendRedirect(pair.RefreshToken)

	default:
		return "", fmt.Errorf("find user: %w", err)
	}
}

func (u *AuthUsecase) createFederated(ctx context.Context, addr string, p *oauth.Profile) (*domain.User, error) {
	// the account gets a password nobody knows; reset is the only way to a local login
	plain, err := password.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := u.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name, _, _ = strings.Cut(addr, "@")
	}

	user, err := u.users.Create(ctx, &domain.User{
		Email:        addr,
		Username:     name,
		Avatar:       p.Picture,
		PasswordHash: hash,
		Federated:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}
	return user, nil
}

func (u *AuthUsecase) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	pair, err := u.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := u.users.SetTokens(ctx, user.ID, pair); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return newSession(user, pair), nil
}

func (u *AuthUsecase) frontendRedirect(refreshToken string) (string, error) {
	dest, err := url.Parse(u.frontendURL)
	if err != nil {
		return "", fmt.Errorf("parse frontend url: %w", err)
	}
	q := dest.Query()
	q.Set("token", refreshToken)
	dest.RawQuery = q.Encode()
	return dest.String(), nil
}

func (u *AuthUsecase) dummy() string {
	u.dummyOnce.Do(func() {
		u.dummyHash, _ = u.hasher.Hash("dummy-password-for-timing")
	})
	return u.dummyHash
}

func newSession(user *domain.User, pair domain.TokenPair) *domain.Session {
	user.AccessToken = pair.AccessToken
	user.RefreshToken = pair.RefreshToken
	return &domain.Session{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Profile(),
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func observe(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if _, ok := domain.AsError(err); ok {
			outcome = "rejected"
		}
	}
	metrics.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}
