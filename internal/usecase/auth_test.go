package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
	"github.com/goosetrack/goosetrack-api/internal/password"
	"github.com/goosetrack/goosetrack-api/internal/token"
	"github.com/goosetrack/goosetrack-api/internal/usecase"
)

const (
	testAccessSecret  = "access-secret-at-least-32-chars!!"
	testRefreshSecret = "refresh-secret-at-least-32-chars!"
	testFrontendURL   = "http://localhost:3000/auth"
)

type authFixture struct {
	store    *memStore
	users    memUsers
	tokens   *token.Issuer
	hasher   *password.Hasher
	sender   *fakeSender
	provider *fakeProvider
	uc       *usecase.AuthUsecase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:  []byte(testAccessSecret),
		RefreshSecret: []byte(testRefreshSecret),
	})
	require.NoError(t, err)

	f := &authFixture{
		store:    newMemStore(),
		tokens:   tokens,
		hasher:   password.NewHasher(bcrypt.MinCost),
		sender:   &fakeSender{},
		provider: &fakeProvider{},
	}
	f.users = memUsers{s: f.store}
	f.uc = usecase.NewAuthUsecase(f.users, f.tokens, f.hasher, f.sender, f.provider, testFrontendURL, discardLogger())
	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *authFixture) register(t *testing.T, addr, pw string) *domain.Session {
	t.Helper()
	s, err := f.uc.Register(context.Background(), usecase.RegisterInput{Email: addr, Username: "A", Password: pw})
	require.NoError(t, err)
	return s
}

// ---- Register / Login ----

func TestRegister_IssuesSessionAndStoresTokens(t *testing.T) {
	f := newAuthFixture(t)

	s := f.register(t, "a@x.com", "secret1")
	require.NotEmpty(t, s.Token)
	require.NotEmpty(t, s.RefreshToken)
	require.Equal(t, "a@x.com", s.User.Email)
	require.False(t, s.User.IsGoogleAuth)

	stored, err := f.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, s.Token, stored.AccessToken)
	require.Equal(t, s.RefreshToken, stored.RefreshToken)
	require.NotNil(t, stored.SessionExpiresAt)
	require.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "secret1")

	_, err := f.uc.Register(context.Background(), usecase.RegisterInput{Email: "A@x.com ", Username: "B", Password: "secret2"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "secret1")

	_, errWrong := f.uc.Login(context.Background(), "a@x.com", "wrong")
	_, errUnknown := f.uc.Login(context.Background(), "nobody@x.com", "secret1")

	require.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	require.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestSessionScenario_LoginRotatesAndOldRefreshIsRejected(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg := f.register(t, "a@x.com", "secret1")

	_, err := f.uc.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	login, err := f.uc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotEqual(t, reg.RefreshToken, login.RefreshToken)

	_, err = f.uc.Refresh(ctx, reg.RefreshToken)
	require.ErrorIs(t, err, domain.ErrRefreshInvalid)
}

// ---- Refresh ----

func TestRefresh_RotatesPairAndRejectsReuse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	s := f.register(t, "a@x.com", "secret1")

	next, err := f.uc.Refresh(ctx, s.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, s.RefreshToken, next.RefreshToken)
	require.NotEqual(t, s.Token, next.Token)
	require.Equal(t, "a@x.com", next.User.Email)

	_, err = f.uc.Refresh(ctx, s.RefreshToken)
	require.ErrorIs(t, err, domain.ErrRefreshInvalid)

	stored, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, next.RefreshToken, stored.RefreshToken)
}

func TestRefresh_RejectsAccessTokenAndGarbage(t *testing.T) {
	f := newAuthFixture(t)
	s := f.register(t, "a@x.com", "secret1")

	for _, raw := range []string{s.Token, "garbage", ""} {
		_, err := f.uc.Refresh(context.Background(), raw)
		require.ErrorIs(t, err, domain.ErrRefreshInvalid)
	}
}

func TestRefresh_ConcurrentUseHasOneWinner(t *testing.T) {
	f := newAuthFixture(t)
	s := f.register(t, "a@x.com", "secret1")

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.uc.Refresh(context.Background(), s.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

// ---- Logout ----

func TestLogout_ClearsTokensAndBlocksRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	s := f.register(t, "a@x.com", "secret1")

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, u.ID))

	u, err = f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, u.AccessToken)
	require.Empty(t, u.RefreshToken)

	_, err = f.uc.Refresh(ctx, s.RefreshToken)
	require.ErrorIs(t, err, domain.ErrRefreshInvalid)
}

// ---- Reset password ----

func TestResetPassword_MailsWorkingPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "secret1")

	require.NoError(t, f.uc.ResetPassword(ctx, "a@x.com"))

	msg := f.sender.last()
	require.Equal(t, "a@x.com", msg.To)

	_, err := f.uc.Login(ctx, "a@x.com", "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	var mailed string
	for _, field := range strings.FieldsFunc(msg.HTML, func(r rune) bool { return r == '<' || r == '>' || r == ' ' }) {
		if len(field) == password.GeneratedLength {
			if ok, _ := f.hasher.Compare(u.PasswordHash, field); ok {
				mailed = field
			}
		}
	}
	require.NotEmpty(t, mailed, "mailed password should match the stored hash")
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	err := f.uc.ResetPassword(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestResetPassword_EmailFailurePropagates(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "secret1")
	f.sender.err = errors.New("smtp down")

	err := f.uc.ResetPassword(context.Background(), "a@x.com")
	require.Error(t, err)
	_, typed := domain.AsError(err)
	require.False(t, typed)
}

func TestSendRemovalKey_MailsUserID(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "secret1")
	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, f.uc.SendRemovalKey(ctx, u))
	require.Contains(t, f.sender.last().HTML, u.ID)
}

// ---- OAuth ----

func TestOAuthCallback_ExistingUserIsMarkedFederated(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "secret1")
	f.provider.profile = &oauth.Profile{Email: "A@x.com", Name: "Alice"}

	redirect, err := f.uc.OAuthCallback(ctx, "code")
	require.NoError(t, err)

	u, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, u.Federated)
	require.Len(t, f.store.users, 1)

	dest, err := url.Parse(redirect)
	require.NoError(t, err)
	require.Equal(t, "/auth", dest.Path)
	require.Equal(t, u.RefreshToken, dest.Query().Get("token"))

	// the pair issued by the callback is a working session
	_, err = f.uc.Refresh(ctx, dest.Query().Get("token"))
	require.NoError(t, err)
}

func TestOAuthCallback_NewUserIsCreated(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.provider.profile = &oauth.Profile{Email: "new@x.com", Picture: "https://img/p.png"}

	_, err := f.uc.OAuthCallback(ctx, "code")
	require.NoError(t, err)

	u, err := f.users.FindByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	require.True(t, u.Federated)
	require.Equal(t, "new", u.Username)
	require.Equal(t, "https://img/p.png", u.Avatar)
	require.NotEmpty(t, u.AccessToken)
	require.NotEmpty(t, u.RefreshToken)
}

func TestOAuthCallback_ProviderFailureIsUpstream(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.err = errors.New("exchange failed")

	_, err := f.uc.OAuthCallback(context.Background(), "code")
	e, ok := domain.AsError(err)
	require.True(t, ok)
	require.Equal(t, domain.KindUpstream, e.Kind)
	require.Empty(t, f.store.users)
}

func TestOAuthURL_PassesState(t *testing.T) {
	f := newAuthFixture(t)
	require.Contains(t, f.uc.OAuthURL("abc"), "state=abc")
}

func TestRegister_PasswordOverBcryptLimitIsValidationError(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.Register(context.Background(), usecase.RegisterInput{
		Email:    "a@x.com",
		Username: "A",
		Password: strings.Repeat("p", 80),
	})
	require.ErrorIs(t, err, domain.ErrPasswordTooLong)
	e, ok := domain.AsError(err)
	require.True(t, ok)
	require.Equal(t, 400, e.Status())

	_, err = f.users.FindByEmail(context.Background(), "a@x.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
