package cognito

import (
	"context"
	"fmt"
	"slices"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	tokenUseID     = "id"
	tokenUseAccess = "access"
)

type claims struct {
	jwt.RegisteredClaims
	TokenUse        string `json:"token_use"`
	ClientID        string `json:"client_id"`
	Username        string `json:"username"`
	CognitoUsername string `json:"cognito:username"`
}

// TokenVerifier checks ID and access tokens issued by one user pool to one
// app client.
type TokenVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	clientID string
}

// NewTokenVerifier fetches the pool's signing keys from jwksURL and keeps them
// refreshed in the background until ctx is done.
func NewTokenVerifier(ctx context.Context, jwksURL, issuer, clientID string) (*TokenVerifier, error) {
	const op = "adapter.identity.cognito.NewTokenVerifier"

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load jwks: %w", op, err)
	}

	return newTokenVerifier(k.Keyfunc, issuer, clientID), nil
}

func newTokenVerifier(kf jwt.Keyfunc, issuer, clientID string) *TokenVerifier {
	return &TokenVerifier{
		keyfunc:  kf,
		issuer:   issuer,
		clientID: clientID,
	}
}

// Verify validates token and returns the username it was issued to. Every
// failure wraps entity.ErrInvalidToken.
func (v *TokenVerifier) Verify(_ context.Context, token string) (string, error) {
	const op = "adapter.identity.cognito.TokenVerifier.Verify"

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, entity.ErrInvalidToken, err)
	}

	var username string

	switch c.TokenUse {
	case tokenUseID:
		if !slices.Contains(c.Audience, v.clientID) {
			return "", fmt.Errorf("%s: %w: audience mismatch", op, entity.ErrInvalidToken)
		}
		username = c.CognitoUsername
	case tokenUseAccess:
		if c.ClientID != v.clientID {
			return "", fmt.Errorf("%s: %w: client id mismatch", op, entity.ErrInvalidToken)
		}
		username = c.Username
	default:
		return "", fmt.Errorf("%s: %w: unexpected token_use %q", op, entity.ErrInvalidToken, c.TokenUse)
	}

	if username == "" {
		return "", fmt.Errorf("%s: %w: no username claim", op, entity.ErrInvalidToken)
	}

	return username, nil
}
