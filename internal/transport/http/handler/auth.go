package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/oauth"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
	"github.com/goosetrack/goosetrack-api/internal/usecase"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60 // seconds
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	ResetPassword(ctx context.Context, email string) error
	SendRemovalKey(ctx context.Context, user *domain.User) error
	OAuthURL(state string) string
	OAuthCallback(ctx context.Context, code string) (string, error)
}

type AuthHandler struct {
	authUsecase  authUsecaser
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler builds the handler. secureCookie marks the OAuth state cookie Secure
// and should be true whenever the API is served over HTTPS.
func NewAuthHandler(authUsecase authUsecaser, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase:  authUsecase,
		secureCookie: secureCookie,
		logger:       logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Email    string `json:"email"    binding:"required,emailx"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,emailx"`
	Password string `json:"password" binding:"required,min=6"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" form:"email" binding:"required,emailx"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, session)
}

// POST /api/auth/login
// Unknown email and wrong password produce the same 401.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, session)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUsecase.Logout(c.Request.Context(), c.GetString(middleware.UserIDKey)); err != nil {
		_ = c.Error(err)
		return
	}
	respondMessage(c, http.StatusOK, "Logout success")
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, err := h.authUsecase.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, session)
}

// POST /api/auth/reset with a JSON body, GET /api/auth/reset?email=
// A GET without the query parameter falls back to the JSON body.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req emailRequest
	bind := bindJSON
	if c.Request.Method == http.MethodGet && (c.Query("email") != "" || c.Request.ContentLength == 0) {
		bind = bindQuery
	}
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}
	respondMessage(c, http.StatusOK, "Reset password sent successfully")
}

// GET /api/auth/remove-key
func (h *AuthHandler) SendRemovalKey(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.authUsecase.SendRemovalKey(c.Request.Context(), user); err != nil {
		_ = c.Error(err)
		return
	}
	respondMessage(c, http.StatusOK, "Secret key was sent on "+user.Email+" successfully")
}

// GET /api/auth/google
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	state := oauth.NewState()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/api/auth", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.authUsecase.OAuthURL(state))
}

// GET /api/auth/google-redirect?code=&state=
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	expected, err := c.Cookie(oauthStateCookie)
	state := c.Query("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		_ = c.Error(domain.ErrOAuthState)
		return
	}
	// single use
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth", "", h.secureCookie, true)

	code := c.Query("code")
	if code == "" {
		_ = c.Error(domain.Validation(`"code" is required`))
		return
	}

	redirect, err := h.authUsecase.OAuthCallback(c.Request.Context(), code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, redirect)
}
