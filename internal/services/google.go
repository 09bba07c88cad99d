package services

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// GoogleIdentity is the verified subset of a Google ID token
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier checks Google sign-in credentials
type GoogleVerifier interface {
	// VerifyIDToken checks the signature, issuer, audience and expiry of a raw ID token.
	VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleIdentity, error)
	// Exchange trades an authorization code for the ID token it carries.
	Exchange(ctx context.Context, code string) (string, error)
}

// GoogleAuth verifies Google ID tokens through OpenID Connect discovery
type GoogleAuth struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
}

// NewGoogleAuth discovers Google's OIDC configuration
func NewGoogleAuth(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleAuth, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover google provider: %w", err)
	}

	return &GoogleAuth{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

// VerifyIDToken validates a raw ID token and returns its identity claims
func (g *GoogleAuth) VerifyIDToken(ctx context.Context, rawIDToken string) (*GoogleIdentity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token claims: %w", err)
	}

	return &GoogleIdentity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// Exchange trades an authorization code for an ID token
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (string, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", fmt.Errorf("no id_token in token response")
	}
	return rawIDToken, nil
}
