package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/social-auth/internal/model"
)

// ErrMissingCode is returned when a provider callback arrives without the
// authorization code (or, for Telegram, without the signed payload).
var ErrMissingCode = errors.New("auth: callback is missing its authorization data")

// Profile is the normalized identity a provider hands back after a
// successful callback. Email is empty when the provider doesn't supply one.
type Profile struct {
	Provider    model.Provider
	ID          string
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
	AvatarURL   string
}

// Provider is one social sign-in method. Exchange turns the query parameters
// of the provider's callback into a verified Profile.
type Provider interface {
	Name() model.Provider
	Exchange(ctx context.Context, params url.Values) (*Profile, error)
}

// Redirector is implemented by providers whose flow starts by sending the
// browser to a consent screen (the OAuth 2.0 authorization code flow).
type Redirector interface {
	AuthURL(state string) string
}

// GitHubUser holds the /user fields a Profile is built from. Email is empty
// when the account hides it; Name is empty when never set.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// gitHubEmail is one entry of the GitHub /user/emails response.
type gitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider trades the callback code for an access token, then reads
// /user and, when the address is hidden, /user/emails.
type GitHubProvider struct {
	config *oauth2.Config
	// apiBaseURL is https://api.github.com; tests point it at httptest.
	apiBaseURL string
}

// NewGitHubProvider asks for read:user and user:email, the latter so hidden
// addresses are still readable through /user/emails.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: "https://api.github.com",
	}
}

func (p *GitHubProvider) Name() model.Provider { return model.ProviderGitHub }

// AuthURL returns the consent-screen URL. The state is checked against a
// cookie on callback to defeat CSRF.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the code for an access token,
// then reads the profile and the best email address.
func (p *GitHubProvider) Exchange(ctx context.Context, params url.Values) (*Profile, error) {
	code := params.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub code: %w", err)
	}

	// Client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, token)

	var ghUser GitHubUser
	if err := getJSON(ctx, client, p.apiBaseURL+"/user", &ghUser); err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user: %w", err)
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	var emails []gitHubEmail
	if err := getJSON(ctx, client, p.apiBaseURL+"/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user/emails: %w", err)
	}

	displayName := ghUser.Name
	if displayName == "" {
		displayName = ghUser.Login
	}
	firstName, _, _ := strings.Cut(displayName, " ")

	return &Profile{
		Provider:    model.ProviderGitHub,
		ID:          strconv.FormatInt(ghUser.ID, 10),
		Email:       pickGitHubEmail(emails, ghUser.Email),
		DisplayName: displayName,
		FirstName:   firstName,
		AvatarURL:   ghUser.AvatarURL,
	}, nil
}

// pickGitHubEmail prefers the primary verified address, then any verified
// one, then the first listed, then the public profile email.
func pickGitHubEmail(emails []gitHubEmail, fallback string) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return fallback
}

// getJSON GETs url with client and decodes a 200 JSON body into dst.
func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
