package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"writing_marketplace/config"
	"writing_marketplace/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

var ErrOAuthNoEmail = errors.New("oauth provider returned no email")

type OAuthProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}

type OAuthProvider interface {
	Name() string
	FetchProfile(ctx context.Context, in model.OAuthSignInInput) (*OAuthProfile, error)
}

type oauthProvider struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	decode      func([]byte) (*OAuthProfile, error)
}

func NewGoogleProvider(cfg config.OAuth) OAuthProvider {
	return &oauthProvider{
		name: model.ProviderGoogle,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		decode:      decodeGoogleProfile,
	}
}

func NewFacebookProvider(cfg config.OAuth) OAuthProvider {
	return &oauthProvider{
		name: model.ProviderFacebook,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		userInfoURL: "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		decode:      decodeFacebookProfile,
	}
}

func (p *oauthProvider) Name() string {
	return p.name
}

// FetchProfile exchanges an authorization code when one is given, otherwise
// uses the browser supplied access token, then reads the user info endpoint.
func (p *oauthProvider) FetchProfile(ctx context.Context, in model.OAuthSignInInput) (*OAuthProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	var token *oauth2.Token
	if in.Code != "" {
		t, err := p.conf.Exchange(ctx, in.Code)
		if err != nil {
			return nil, fmt.Errorf("%s code exchange: %w", p.name, err)
		}
		token = t
	} else {
		token = &oauth2.Token{AccessToken: in.AccessToken, TokenType: "Bearer"}
	}

	resp, err := p.conf.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo read: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo status %d: %s", p.name, resp.StatusCode, string(body))
	}

	profile, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo decode: %w", p.name, err)
	}
	profile.Provider = p.name
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" {
		return nil, ErrOAuthNoEmail
	}
	return profile, nil
}

func decodeGoogleProfile(body []byte) (*OAuthProfile, error) {
	var u struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		u.Email = ""
	}
	return &OAuthProfile{ProviderID: u.Sub, Email: u.Email, Name: u.Name, AvatarURL: u.Picture}, nil
}

func decodeFacebookProfile(body []byte) (*OAuthProfile, error) {
	var u struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	return &OAuthProfile{ProviderID: u.ID, Email: u.Email, Name: u.Name, AvatarURL: u.Picture.Data.URL}, nil
}
