package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meetgate/pkg/config"
	apperrors "meetgate/pkg/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// Profile is the provider-agnostic result of a profile fetch.
type Profile struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
}

// Provider pairs an oauth2 config with its profile-fetch endpoint.
type Provider struct {
	Name   string
	Config *oauth2.Config

	httpClient *http.Client
}

// NewProviders builds the configured providers. A provider with no client
// id is omitted, so deployments can enable only one of the two.
func NewProviders(cfg *config.Config) map[string]*Provider {
	providers := make(map[string]*Provider)

	if cfg.OAuth.Google.ClientID != "" {
		providers[ProviderGoogle] = &Provider{
			Name: ProviderGoogle,
			Config: &oauth2.Config{
				ClientID:     cfg.OAuth.Google.ClientID,
				ClientSecret: cfg.OAuth.Google.ClientSecret,
				RedirectURL:  cfg.OAuth.Google.RedirectURL,
				Endpoint:     google.Endpoint,
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.profile",
					"https://www.googleapis.com/auth/userinfo.email",
				},
			},
			httpClient: &http.Client{Timeout: 10 * time.Second},
		}
	}

	if cfg.OAuth.GitHub.ClientID != "" {
		providers[ProviderGitHub] = &Provider{
			Name: ProviderGitHub,
			Config: &oauth2.Config{
				ClientID:     cfg.OAuth.GitHub.ClientID,
				ClientSecret: cfg.OAuth.GitHub.ClientSecret,
				RedirectURL:  cfg.OAuth.GitHub.RedirectURL,
				Endpoint:     github.Endpoint,
				Scopes:       []string{"read:user", "user:email"},
			},
			httpClient: &http.Client{Timeout: 10 * time.Second},
		}
	}

	return providers
}

// AuthCodeURL returns the consent-screen redirect for the given state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and fetches the
// user's profile from the provider.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"authorization code exchange failed", http.StatusBadGateway)
	}

	switch p.Name {
	case ProviderGoogle:
		return p.fetchGoogleProfile(ctx, token)
	case ProviderGitHub:
		return p.fetchGitHubProfile(ctx, token)
	default:
		return nil, apperrors.NewInternalError("unknown oauth provider: " + p.Name)
	}
}

func (p *Provider) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	var info struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := p.getJSON(ctx, token, googleUserInfoURL, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, apperrors.NewUpstreamError("google profile response missing id")
	}

	return &Profile{
		Provider:    ProviderGoogle,
		ProviderID:  info.ID,
		Email:       strings.ToLower(info.Email),
		DisplayName: info.Name,
	}, nil
}

func (p *Provider) fetchGitHubProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := p.getJSON(ctx, token, githubUserURL, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, apperrors.NewUpstreamError("github profile response missing id")
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	// The public profile email may be hidden; fall back to the primary
	// verified address from the emails endpoint.
	email := user.Email
	if email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := p.getJSON(ctx, token, githubEmailsURL, &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
		}
	}

	return &Profile{
		Provider:    ProviderGitHub,
		ProviderID:  fmt.Sprintf("%d", user.ID),
		Email:       strings.ToLower(email),
		DisplayName: displayName,
	}, nil
}

func (p *Provider) getJSON(ctx context.Context, token *oauth2.Token, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build profile request")
	}
	token.SetAuthHeader(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"oauth provider unreachable", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return apperrors.NewUpstreamError(
			fmt.Sprintf("profile fetch returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeUpstream,
			"malformed profile response", http.StatusBadGateway)
	}
	return nil
}
