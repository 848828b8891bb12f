package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuthHandler signs in existing identities whose Google account email
// is verified. It never creates accounts; unknown emails are sent to the
// register page.
type GoogleOAuthHandler struct {
	Auth            *auth.Service
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	Log             *zap.Logger

	// fetchUserInfo is replaced in tests.
	fetchUserInfo func(ctx context.Context, code string) (googleUserInfo, error)
}

func (h *GoogleOAuthHandler) Routes(r fiber.Router) {
	g := r.Group("/auth/google")
	g.Get("/start", h.GoogleStart)
	g.Get("/callback", h.GoogleCallback)
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func shortCookie(name, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   maxAge,
	}
}

// GoogleStart accepts ?role=user|worker (default user) and ?next=/path.
func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	role := models.Role(c.Query("role", string(models.RoleCustomer)))
	if !role.Valid() {
		return apperr.NewBadRequest("Role must be user or worker")
	}
	next := c.Query("next", "/")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}

	st := randomState(32)
	c.Cookie(shortCookie("oauth_state", st, 10*60))
	c.Cookie(shortCookie("oauth_role", string(role), 10*60))
	c.Cookie(shortCookie("oauth_next", next, 10*60))

	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *GoogleOAuthHandler) exchange(ctx context.Context, code string) (googleUserInfo, error) {
	if h.fetchUserInfo != nil {
		return h.fetchUserInfo(ctx, code)
	}

	cfg := h.oauthCfg()
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("exchange code: %w", err)
	}
	resp, err := cfg.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return googleUserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return gu, nil
}

func (h *GoogleOAuthHandler) redirectErr(c *fiber.Ctx, msg string) error {
	return c.Redirect(h.FrontendBaseURL+"/login?err="+url.QueryEscape(msg), http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return apperr.NewBadRequest("Missing code/state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return apperr.NewBadRequest("Invalid state")
	}

	role := models.Role(c.Cookies("oauth_role", string(models.RoleCustomer)))
	next := c.Cookies("oauth_next", "/")
	for _, name := range []string{"oauth_state", "oauth_role", "oauth_next"} {
		c.Cookie(shortCookie(name, "", -1))
	}

	gu, err := h.exchange(c.UserContext(), code)
	if err != nil {
		h.Log.Warn("google sign-in failed", zap.Error(err))
		return h.redirectErr(c, "Google sign-in failed")
	}
	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" || !gu.VerifiedEmail {
		return h.redirectErr(c, "Google account email is not verified")
	}

	token, _, err := h.Auth.LoginWithVerifiedEmail(c.UserContext(), email, role)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			q := url.Values{"email": {email}, "role": {string(role)}, "name": {gu.Name}}
			return c.Redirect(h.FrontendBaseURL+"/register?"+q.Encode(), http.StatusTemporaryRedirect)
		}
		return err
	}

	// token goes in the fragment, never the query string
	return c.Redirect(h.FrontendBaseURL+next+"#token="+url.QueryEscape(token), http.StatusTemporaryRedirect)
}
