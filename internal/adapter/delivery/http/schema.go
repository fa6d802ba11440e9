package http

import (
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const loginSucceeded = "Authentication successful"

type shortenRequest struct {
	LongURL       string `json:"long_url" validate:"required"`
	CustomShortID string `json:"custom_short_id" validate:"omitempty,alphanum,max=64"`
}

type shortenResponse struct {
	ShortURL string `json:"short_url"`
}

type statsResponse struct {
	ShortID   string            `json:"short_id"`
	LongURL   string            `json:"long_url"`
	ShortURL  string            `json:"short_url"`
	HitCount  int64             `json:"hit_count"`
	Analytics map[string]string `json:"analytics"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt int64             `json:"expires_at"`
}

func toStatsResponse(link *entity.ShortLink) statsResponse {
	return statsResponse{
		ShortID:   link.ShortID,
		LongURL:   link.LongURL,
		ShortURL:  link.ShortURL,
		HitCount:  link.HitCount,
		Analytics: link.Analytics,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse keeps the identity provider's field name for the token set.
type loginResponse struct {
	Message              string             `json:"message"`
	AuthenticationResult *entity.AuthTokens `json:"AuthenticationResult"`
}
