package http

import (
	"net/http"
	"net/url"

	"meetgate/internal/core/ports"
	"meetgate/internal/infrastructure/oauth"
	"meetgate/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const oauthStateCookie = "oauth_state"
const oauthStateTTL = 300 // seconds

// OAuthHandler drives the redirect-based three-legged flow. One route per
// provider: no code means redirect to consent, code present means exchange
// and log in.
type OAuthHandler struct {
	providers   map[string]*oauth.Provider
	authService ports.AuthService
	frontendURL string
	cookie      CookieSettings
	logger      *zap.SugaredLogger
}

func NewOAuthHandler(
	providers map[string]*oauth.Provider,
	authService ports.AuthService,
	frontendURL string,
	cookie CookieSettings,
	logger *zap.SugaredLogger,
) *OAuthHandler {
	return &OAuthHandler{
		providers:   providers,
		authService: authService,
		frontendURL: frontendURL,
		cookie:      cookie,
		logger:      logger,
	}
}

func (h *OAuthHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/oauth/google", h.handle(oauth.ProviderGoogle))
	router.GET("/oauth/github", h.handle(oauth.ProviderGitHub))
}

func (h *OAuthHandler) handle(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, enabled := h.providers[name]
		if !enabled {
			h.redirectToFrontend(c, false, "provider not configured")
			return
		}

		code := c.Query("code")
		if code == "" {
			h.redirectToConsent(c, provider)
			return
		}
		h.handleCallback(c, provider, code)
	}
}

func (h *OAuthHandler) redirectToConsent(c *gin.Context, provider *oauth.Provider) {
	state := utils.GenerateOAuthState()
	c.SetCookie(oauthStateCookie, state, oauthStateTTL, "/", h.cookie.Domain, h.cookie.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state))
}

func (h *OAuthHandler) handleCallback(c *gin.Context, provider *oauth.Provider, code string) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		h.logger.Warnw("oauth state mismatch", "provider", provider.Name)
		h.redirectToFrontend(c, false, "state mismatch")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)

	profile, err := provider.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Errorw("oauth exchange failed", "provider", provider.Name, "error", err)
		h.redirectToFrontend(c, false, "exchange failed")
		return
	}

	_, credential, err := h.authService.OAuthLogin(
		c.Request.Context(), profile.Provider, profile.ProviderID, profile.Email, profile.DisplayName)
	if err != nil {
		h.logger.Errorw("oauth login failed", "provider", provider.Name, "error", err)
		h.redirectToFrontend(c, false, "login failed")
		return
	}

	setSessionCookie(c, h.cookie, credential)
	h.redirectToFrontend(c, true, "")
}

func (h *OAuthHandler) redirectToFrontend(c *gin.Context, success bool, reason string) {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	query := target.Query()
	if success {
		query.Set("auth", "success")
	} else {
		query.Set("auth", "error")
		if reason != "" {
			query.Set("reason", reason)
		}
	}
	target.RawQuery = query.Encode()

	c.Redirect(http.StatusTemporaryRedirect, target.String())
}
