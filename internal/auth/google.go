package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleClaims is the subset of a Google ID token this service relies on.
type GoogleClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
}

// SplitName derives first/last name fields from the claims, preferring the
// structured given/family names over splitting the display name.
func (c GoogleClaims) SplitName() (first, last string) {
	first = strings.TrimSpace(c.GivenName)
	last = strings.TrimSpace(c.FamilyName)
	if first != "" {
		return first, last
	}
	parts := strings.Fields(c.Name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// GoogleVerifier validates Google-issued ID tokens against the Google JWKS.
type GoogleVerifier struct {
	ClientIDs []string
	cache     *jwk.Cache
}

// NewGoogleVerifier constructs a verifier that refreshes the Google key set
// in the background for the lifetime of ctx.
func NewGoogleVerifier(ctx context.Context, clientIDs []string) (*GoogleVerifier, error) {
	ids := make([]string, 0, len(clientIDs))
	for _, id := range clientIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("auth: at least one google client id is required")
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(googleJWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register google jwks: %w", err)
	}
	return &GoogleVerifier{ClientIDs: ids, cache: cache}, nil
}

// Verify implements IDTokenVerifier.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleClaims, error) {
	trimmed := strings.TrimSpace(rawToken)
	if trimmed == "" {
		return GoogleClaims{}, errors.New("auth: empty id token")
	}
	keySet, err := v.cache.Get(ctx, googleJWKSURL)
	if err != nil {
		return GoogleClaims{}, fmt.Errorf("fetch google jwks: %w", err)
	}
	token, err := jwt.ParseString(trimmed, jwt.WithKeySet(keySet), jwt.WithValidate(true))
	if err != nil {
		return GoogleClaims{}, fmt.Errorf("parse id token: %w", err)
	}
	return v.claimsFromToken(token)
}

func (v *GoogleVerifier) claimsFromToken(token jwt.Token) (GoogleClaims, error) {
	issuerOK := false
	for _, iss := range googleIssuers {
		if token.Issuer() == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return GoogleClaims{}, fmt.Errorf("auth: unexpected issuer %q", token.Issuer())
	}

	audienceOK := false
	for _, aud := range token.Audience() {
		for _, id := range v.ClientIDs {
			if aud == id {
				audienceOK = true
				break
			}
		}
	}
	if !audienceOK {
		return GoogleClaims{}, errors.New("auth: token audience does not match any configured client id")
	}

	claims := GoogleClaims{Subject: token.Subject()}
	claims.Email, _ = stringClaim(token, "email")
	claims.Name, _ = stringClaim(token, "name")
	claims.GivenName, _ = stringClaim(token, "given_name")
	claims.FamilyName, _ = stringClaim(token, "family_name")
	if verified, ok := token.Get("email_verified"); ok {
		switch v := verified.(type) {
		case bool:
			claims.EmailVerified = v
		case string:
			claims.EmailVerified = v == "true"
		}
	}
	return claims, nil
}

func stringClaim(token jwt.Token, name string) (string, bool) {
	raw, ok := token.Get(name)
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}
