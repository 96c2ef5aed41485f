package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// googleUserInfoURL is the endpoint we call with the exchanged access
// token to learn who just authenticated.
const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the portion of Google's userinfo response we care about.
// Google returns more fields - we only unmarshal what the account needs.
type GoogleUser struct {
	ID      string `json:"id"`      // Google's subject id - stable, never changes
	Email   string `json:"email"`   // verified email for the Google account
	Name    string `json:"name"`    // display name
	Picture string `json:"picture"` // avatar URL (unused, kept for completeness)
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization
// Code flow.
//
// FLOW:
//  1. We redirect the browser to Google's consent page with our ClientID.
//  2. The user approves; Google redirects back with a short-lived code.
//  3. We exchange the code for an access token (server-to-server, using
//     the ClientSecret - the token never touches the browser).
//  4. We call the userinfo endpoint with the token.
type GoogleProvider struct {
	config *oauth2.Config

	// userInfoURL is overridable in tests; defaults to googleUserInfoURL.
	userInfoURL string
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
// callbackURL must exactly match an authorized redirect URI registered in
// the Google Cloud console.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthURL returns the consent-page URL for the given CSRF state.
// The caller stores the state in a short-lived cookie and verifies it on
// callback; a mismatch means the callback wasn't initiated by us.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// verified Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the
	// bearer token to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.ID == "" || gUser.Email == "" {
		return nil, fmt.Errorf("auth: Google returned an incomplete profile")
	}

	return &gUser, nil
}
