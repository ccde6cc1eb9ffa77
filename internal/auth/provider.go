package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

var ErrMissingIDToken = errors.New("token response has no id_token")

// ProviderConfig describes an OpenID Connect identity provider with
// Auth0-style endpoints under Issuer.
type ProviderConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	ReturnTo     string
}

// Provider runs the authorization code login flow.
type Provider struct {
	oauth    oauth2.Config
	issuer   string
	returnTo string
	verifier *TokenVerifier
}

// NewProvider builds a Provider. ID tokens returned by the exchange are
// checked with verifier.
func NewProvider(cfg ProviderConfig, verifier *TokenVerifier) *Provider {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/authorize",
				TokenURL: issuer + "/oauth/token",
			},
		},
		issuer:   issuer,
		returnTo: cfg.ReturnTo,
		verifier: verifier,
	}
}

// LoginURL is where the browser is sent to sign in.
func (p *Provider) LoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the caller's identity.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrMissingIDToken
	}
	identity, _, err := p.verifier.Verify(raw)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// LogoutURL ends the provider session and returns the browser to ReturnTo.
func (p *Provider) LogoutURL() string {
	q := url.Values{}
	q.Set("client_id", p.oauth.ClientID)
	if p.returnTo != "" {
		q.Set("returnTo", p.returnTo)
	}
	return p.issuer + "/v2/logout?" + q.Encode()
}
