package entity

import "errors"

var (
	// ErrAuthFailed is the sentinel wrapped by every AuthError.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthError carries the identity provider's reason for rejecting a login.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return ErrAuthFailed
}

// PasswordAuth is a username/password login request as sent to the identity provider.
type PasswordAuth struct {
	ClientID   string
	Username   string
	Password   string
	SecretHash string
}

// AuthTokens is the token set issued by the identity provider on a successful login.
type AuthTokens struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int32  `json:"ExpiresIn"`
}
