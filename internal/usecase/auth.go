package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type identityProvider interface {
	InitiatePasswordAuth(ctx context.Context, req entity.PasswordAuth) (*entity.AuthTokens, error)
}

// AuthUseCase logs users in through the identity provider.
type AuthUseCase struct {
	provider     identityProvider
	clientID     string
	clientSecret string
}

func NewAuthUseCase(provider identityProvider, clientID, clientSecret string) *AuthUseCase {
	return &AuthUseCase{
		provider:     provider,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Authenticate exchanges a username and password for tokens. Rejections by the
// identity provider are returned as *entity.AuthError. The secret hash is only
// sent when the app client has a secret.
func (uc *AuthUseCase) Authenticate(ctx context.Context, username, password string) (*entity.AuthTokens, error) {
	const op = "usecase.AuthUseCase.Authenticate"

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%s: username and password are required: %w", op, entity.ErrInvalidInput)
	}

	req := entity.PasswordAuth{
		ClientID: uc.clientID,
		Username: username,
		Password: password,
	}
	if uc.clientSecret != "" {
		req.SecretHash = SecretHash(uc.clientSecret, username, uc.clientID)
	}

	tokens, err := uc.provider.InitiatePasswordAuth(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, nil
}

// SecretHash computes the client secret binding the identity provider expects:
// base64(HMAC-SHA256(secret, username+clientID)).
func SecretHash(secret, username, clientID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
