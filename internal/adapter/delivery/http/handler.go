package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

const (
	forwardedForHeader = "X-Forwarded-For"
	traceIDHeader      = "X-Amzn-Trace-Id"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// decode writes a 400 response and reports false when the body is missing or
// malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, response.EmptyRequestBody)
			return false
		}

		render.JSON(w, r, response.InvalidRequestBody)
		return false
	}

	return true
}

// validateBody writes a 400 response listing the failed fields and reports
// false when v is invalid.
func validateBody(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	if err := validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Validation(err))
		return false
	}

	return true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	return decode(w, r, v) && validateBody(w, r, validate, v)
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.ServerError)
}

type linkUseCase interface {
	Shorten(ctx context.Context, in usecase.ShortenInput) (*entity.ShortLink, error)
	Stats(ctx context.Context, shortID, ownerID string) (*entity.ShortLink, error)
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate) *linkHandler {
	return &linkHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// requestMetadata copies the analytics headers verbatim; absent headers stay
// empty.
func requestMetadata(r *http.Request) usecase.RequestMetadata {
	return usecase.RequestMetadata{
		UserAgent: r.Header.Get("User-Agent"),
		SourceIP:  r.Header.Get(forwardedForHeader),
		TraceID:   r.Header.Get(traceIDHeader),
	}
}

func (h *linkHandler) shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if !decode(w, r, &req) {
		return
	}

	// Custom IDs are honored only for owners.
	owner := ownerFromContext(r.Context())
	if entity.IsAnonymous(owner) {
		req.CustomShortID = ""
	}

	if !validateBody(w, r, h.validate, &req) {
		return
	}

	link, err := h.useCase.Shorten(r.Context(), usecase.ShortenInput{
		LongURL:       req.LongURL,
		CustomShortID: req.CustomShortID,
		OwnerID:       owner,
		Metadata:      requestMetadata(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidInput):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Validation(err))
		case errors.Is(err, entity.ErrShortIDExists):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.ShortIDExists)
		default:
			serverError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, shortenResponse{ShortURL: link.ShortURL})
}

func (h *linkHandler) stats(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortID")

	link, err := h.useCase.Stats(r.Context(), shortID, ownerFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.LinkNotFound)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toStatsResponse(link))
}

type redirectUseCase interface {
	Resolve(ctx context.Context, shortID string) string
}

// handleRedirect always answers 302; unknown links go to the fallback URL
// chosen by the use case.
func handleRedirect(useCase redirectUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := useCase.Resolve(r.Context(), chi.URLParam(r, "shortID"))
		http.Redirect(w, r, location, http.StatusFound)
	}
}

type authUseCase interface {
	Authenticate(ctx context.Context, username, password string) (*entity.AuthTokens, error)
}

type authHandler struct {
	useCase  authUseCase
	validate *validator.Validate
}

func newAuthHandler(useCase authUseCase, validate *validator.Validate) *authHandler {
	return &authHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	tokens, err := h.useCase.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		var authErr *entity.AuthError

		switch {
		case errors.As(err, &authErr):
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.AuthFailed(authErr.Reason))
		case errors.Is(err, entity.ErrInvalidInput):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Validation(err))
		default:
			serverError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, loginResponse{
		Message:              loginSucceeded,
		AuthenticationResult: tokens,
	})
}
