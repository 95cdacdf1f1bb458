package auth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sakif/social-auth/internal/model"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleUser is the v2 userinfo response.
type googleUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// GoogleProvider implements the Google OAuth 2.0 sign-in.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) Name() model.Provider { return model.ProviderGoogle }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *GoogleProvider) Exchange(ctx context.Context, params url.Values) (*Profile, error) {
	code := params.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google code: %w", err)
	}

	var u googleUser
	if err := getJSON(ctx, p.config.Client(ctx, token), p.userInfoURL, &u); err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("auth: Google returned a user without an id")
	}

	return &Profile{
		Provider:    model.ProviderGoogle,
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		FirstName:   u.GivenName,
		LastName:    u.FamilyName,
		AvatarURL:   u.Picture,
	}, nil
}
