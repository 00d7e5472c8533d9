// Package appenv checks the environment variables the Django application
// reads at startup and builds its Google sign-in configuration.
package appenv

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Variables read by the application
const (
	GoogleClientID     = "GOOGLE_OAUTH_CLIENT_ID"
	GoogleClientSecret = "GOOGLE_OAUTH_CLIENT_SECRET"
	AlphaVantageKey    = "ALPHAVANTAGE_API_KEY"
	AlphaVantageKey2   = "ALPHAVANTAGE_SECONDARY_API_KEY"
)

// CallbackPath is where allauth receives the Google redirect
const CallbackPath = "/accounts/google/login/callback/"

// ErrOAuthNotConfigured is returned when the Google client id or secret is unset
var ErrOAuthNotConfigured = errors.New("google OAuth client is not configured: set " + GoogleClientID + " and " + GoogleClientSecret)

// Var is the state of one variable
type Var struct {
	Name     string
	Required bool
	Present  bool
}

// Report is the result of Check
type Report struct {
	Vars []Var
}

// OK reports whether every required variable is present
func (r *Report) OK() bool {
	return len(r.Missing()) == 0
}

// Missing returns the names of required variables that are unset
func (r *Report) Missing() []string {
	var out []string
	for _, v := range r.Vars {
		if v.Required && !v.Present {
			out = append(out, v.Name)
		}
	}
	return out
}

// Check looks up every application variable with env, usually os.Getenv
func Check(env func(string) string) *Report {
	vars := []Var{
		{Name: GoogleClientID, Required: true},
		{Name: GoogleClientSecret, Required: true},
		{Name: AlphaVantageKey, Required: true},
		{Name: AlphaVantageKey2},
	}
	for i := range vars {
		vars[i].Present = strings.TrimSpace(env(vars[i].Name)) != ""
	}
	return &Report{Vars: vars}
}

// OAuthConfig builds the Google OAuth2 client configuration the application
// registers, redirecting to siteURL.
func OAuthConfig(env func(string) string, siteURL string) (*oauth2.Config, error) {
	id := strings.TrimSpace(env(GoogleClientID))
	secret := strings.TrimSpace(env(GoogleClientSecret))
	if id == "" || secret == "" {
		return nil, ErrOAuthNotConfigured
	}
	if siteURL == "" {
		return nil, fmt.Errorf("site URL is required")
	}
	return &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		RedirectURL:  strings.TrimRight(siteURL, "/") + CallbackPath,
		Scopes:       []string{"openid", "email", "profile"},
	}, nil
}

// AuthURL returns the consent page URL for cfg, for checking the client
// against the Google console by hand.
func AuthURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}
