package appenv

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantOK      bool
		wantMissing []string
	}{
		{
			name: "all set",
			env: map[string]string{
				GoogleClientID:     "id",
				GoogleClientSecret: "secret",
				AlphaVantageKey:    "key",
			},
			wantOK: true,
		},
		{
			name:        "nothing set",
			env:         map[string]string{},
			wantMissing: []string{GoogleClientID, GoogleClientSecret, AlphaVantageKey},
		},
		{
			name: "blank counts as missing",
			env: map[string]string{
				GoogleClientID:     "id",
				GoogleClientSecret: "secret",
				AlphaVantageKey:    "   ",
				AlphaVantageKey2:   "backup",
			},
			wantMissing: []string{AlphaVantageKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Check(envOf(tt.env))
			assert.Equal(t, tt.wantOK, report.OK())
			assert.Equal(t, tt.wantMissing, report.Missing())
			assert.Len(t, report.Vars, 4)
		})
	}
}

func TestSecondaryKeyIsOptional(t *testing.T) {
	report := Check(envOf(map[string]string{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		AlphaVantageKey:    "key",
	}))
	require.True(t, report.OK())

	last := report.Vars[len(report.Vars)-1]
	assert.Equal(t, AlphaVantageKey2, last.Name)
	assert.False(t, last.Required)
	assert.False(t, last.Present)
}

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig(envOf(map[string]string{
		GoogleClientID:     "client-123",
		GoogleClientSecret: "shh",
	}), "http://localhost:8000/")
	require.NoError(t, err)

	assert.Equal(t, google.Endpoint, cfg.Endpoint)
	assert.Equal(t, "http://localhost:8000/accounts/google/login/callback/", cfg.RedirectURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.Scopes)

	u, err := url.Parse(AuthURL(cfg, "check"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, cfg.RedirectURL, q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "check", q.Get("state"))
}

func TestOAuthConfigRequiresClient(t *testing.T) {
	_, err := OAuthConfig(envOf(map[string]string{GoogleClientID: "id"}), "http://localhost:8000")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
}
