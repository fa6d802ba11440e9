package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"

	httpMock "github.com/vadimbarashkov/shortlink/mocks/http"
)

type HandlersTestSuite struct {
	suite.Suite
	logger            *httplog.Logger
	linkUseCaseMock   *httpMock.MockLinkUseCase
	redirectMock      *httpMock.MockRedirectUseCase
	authUseCaseMock   *httpMock.MockAuthUseCase
	tokenVerifierMock *httpMock.MockTokenVerifier
	server            *httptest.Server
	e                 *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.linkUseCaseMock = httpMock.NewMockLinkUseCase(suite.T())
	suite.redirectMock = httpMock.NewMockRedirectUseCase(suite.T())
	suite.authUseCaseMock = httpMock.NewMockAuthUseCase(suite.T())
	suite.tokenVerifierMock = httpMock.NewMockTokenVerifier(suite.T())

	router := NewRouter(
		suite.logger,
		suite.linkUseCaseMock,
		suite.redirectMock,
		WithAuth(suite.authUseCaseMock),
		WithTokenVerifier(suite.tokenVerifierMock),
	)
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.linkUseCaseMock.AssertExpectations(suite.T())
	suite.redirectMock.AssertExpectations(suite.T())
	suite.authUseCaseMock.AssertExpectations(suite.T())
	suite.tokenVerifierMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func shortenInput(longURL, customShortID, ownerID string) any {
	return mock.MatchedBy(func(in usecase.ShortenInput) bool {
		return in.LongURL == longURL &&
			in.CustomShortID == customShortID &&
			in.OwnerID == ownerID
	})
}

func (suite *HandlersTestSuite) TestShorten() {
	const path = "/api/v1/shorten"

	suite.Run("empty request body", func() {
		suite.e.POST(path).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			ContainsKey("error")
	})

	suite.Run("invalid request body", func() {
		suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			ContainsKey("error")
	})

	suite.Run("unsupported content type", func() {
		suite.e.POST(path).
			WithText("https://example.com").
			Expect().
			Status(http.StatusUnsupportedMediaType).
			JSON().Object().
			HasValue("error", "Content-Type must be application/json")
	})

	suite.Run("missing content type", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "", entity.AnonymousOwner)).
			Once().
			Return(&entity.ShortLink{ShortURL: "https://sho.rt/abc1234"}, nil)

		suite.e.POST(path).
			WithBytes([]byte(`{"long_url":"https://example.com"}`)).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("short_url", "https://sho.rt/abc1234")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"long_url": ""}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("error", "Invalid input")
		details := resp.Value("details").Array()
		details.Length().IsEqual(1)
		details.Value(0).Object().HasValue("field", "long_url")
	})

	suite.Run("invalid custom short id from owner", func() {
		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "good-token").
			Once().
			Return("alice", nil)

		resp := suite.e.POST(path).
			WithHeader("Authorization", "Bearer good-token").
			WithJSON(map[string]string{"long_url": "https://example.com", "custom_short_id": "my-link"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("details").Array().Value(0).Object().HasValue("field", "custom_short_id")
	})

	suite.Run("invalid custom short id from anonymous caller ignored", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "", entity.AnonymousOwner)).
			Once().
			Return(&entity.ShortLink{ShortID: "abc1234", ShortURL: "https://sho.rt/abc1234"}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com", "custom_short_id": "my-link"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("short_url", "https://sho.rt/abc1234")
	})

	suite.Run("long url without scheme", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("example.com/page", "", entity.AnonymousOwner)).
			Once().
			Return(&entity.ShortLink{ShortURL: "https://sho.rt/abc1234"}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "example.com/page"}).
			Expect().
			Status(http.StatusOK)
	})

	suite.Run("analytics headers copied verbatim", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, mock.MatchedBy(func(in usecase.ShortenInput) bool {
				return in.Metadata == usecase.RequestMetadata{
					UserAgent: "curl/8.0",
					SourceIP:  "203.0.113.7, 10.0.0.1",
					TraceID:   "Root=1-5759e988-bd862e3fe1be46a994272793",
				}
			})).
			Once().
			Return(&entity.ShortLink{ShortURL: "https://sho.rt/abc1234"}, nil)

		suite.e.POST(path).
			WithHeader("User-Agent", "curl/8.0").
			WithHeader("X-Forwarded-For", "203.0.113.7, 10.0.0.1").
			WithHeader("X-Amzn-Trace-Id", "Root=1-5759e988-bd862e3fe1be46a994272793").
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusOK)
	})

	suite.Run("absent forwarded for header", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, mock.MatchedBy(func(in usecase.ShortenInput) bool {
				return in.Metadata.SourceIP == "" && in.Metadata.TraceID == ""
			})).
			Once().
			Return(&entity.ShortLink{ShortURL: "https://sho.rt/abc1234"}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusOK)
	})

	suite.Run("invalid input", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "", entity.AnonymousOwner)).
			Once().
			Return(nil, fmt.Errorf("wrapped: %w", entity.ErrInvalidInput))

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("error", "Invalid input")
	})

	suite.Run("short id exists", func() {
		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "good-token").
			Once().
			Return("alice", nil)
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "mylink", "alice")).
			Once().
			Return(nil, entity.ErrShortIDExists)

		suite.e.POST(path).
			WithHeader("Authorization", "Bearer good-token").
			WithJSON(map[string]string{"long_url": "https://example.com", "custom_short_id": "mylink"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object().
			HasValue("error", "The Short ID is already in use. Please try another ID.")
	})

	suite.Run("generation exhausted", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "", entity.AnonymousOwner)).
			Once().
			Return(nil, entity.ErrGenerationExhausted)

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Something went wrong")
	})

	suite.Run("store unavailable", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "", entity.AnonymousOwner)).
			Once().
			Return(nil, fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, errors.New("unknown error")))

		suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Something went wrong")
	})

	suite.Run("invalid token", func() {
		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "bad-token").
			Once().
			Return("", entity.ErrInvalidToken)

		suite.e.POST(path).
			WithHeader("Authorization", "Bearer bad-token").
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().
			ContainsKey("error")
	})

	suite.Run("anonymous success", func() {
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com/?utm=x", "", entity.AnonymousOwner)).
			Once().
			Return(&entity.ShortLink{
				ShortID:  "abc1234",
				ShortURL: "https://sho.rt/abc1234",
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com/?utm=x"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.IsEqual(map[string]any{"short_url": "https://sho.rt/abc1234"})
	})

	suite.Run("raw token accepted", func() {
		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "good-token").
			Once().
			Return("alice", nil)
		suite.linkUseCaseMock.
			On("Shorten", mock.Anything, shortenInput("https://example.com", "mylink", "alice")).
			Once().
			Return(&entity.ShortLink{ShortID: "mylink", ShortURL: "https://sho.rt/mylink"}, nil)

		suite.e.POST(path).
			WithHeader("Authorization", "good-token").
			WithJSON(map[string]string{"long_url": "https://example.com", "custom_short_id": "mylink"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("short_url", "https://sho.rt/mylink")
	})
}

func (suite *HandlersTestSuite) TestStats() {
	const path = "/api/v1/shorten/%s/stats"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("Stats", mock.Anything, "abc1234", entity.AnonymousOwner).
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.e.GET(fmt.Sprintf(path, "abc1234")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "Link not found")
	})

	suite.Run("server error", func() {
		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "good-token").
			Once().
			Return("alice", nil)
		suite.linkUseCaseMock.
			On("Stats", mock.Anything, "abc1234", "alice").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc1234")).
			WithHeader("Authorization", "Bearer good-token").
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Something went wrong")
	})

	suite.Run("success", func() {
		createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		suite.tokenVerifierMock.
			On("Verify", mock.Anything, "good-token").
			Once().
			Return("alice", nil)
		suite.linkUseCaseMock.
			On("Stats", mock.Anything, "abc1234", "alice").
			Once().
			Return(&entity.ShortLink{
				ShortID:   "abc1234",
				LongURL:   "https://example.com",
				ShortURL:  "https://sho.rt/abc1234",
				OwnerID:   "alice",
				CreatedAt: createdAt,
				ExpiresAt: createdAt.Unix() + 604800,
				HitCount:  3,
				Analytics: map[string]string{"user_agent": "curl/8.0"},
			}, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc1234")).
			WithHeader("Authorization", "Bearer good-token").
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("short_id", "abc1234")
		resp.HasValue("long_url", "https://example.com")
		resp.HasValue("hit_count", 3)
		resp.HasValue("expires_at", createdAt.Unix()+604800)
		resp.HasValue("created_at", "2024-05-01T12:00:00Z")
		resp.Value("analytics").Object().HasValue("user_agent", "curl/8.0")
		resp.NotContainsKey("owner_id")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	suite.Run("known link", func() {
		suite.redirectMock.
			On("Resolve", mock.Anything, "abc1234").
			Once().
			Return("https://example.com/page")

		suite.e.GET("/abc1234").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/page")
	})

	suite.Run("fallback", func() {
		suite.redirectMock.
			On("Resolve", mock.Anything, "missing").
			Once().
			Return("https://ardf.github.io/404")

		suite.e.GET("/missing").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://ardf.github.io/404")
	})
}

func (suite *HandlersTestSuite) TestLogin() {
	const path = "/api/v1/auth/login"

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"username": "alice"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("details").Array().Value(0).Object().HasValue("field", "password")
	})

	suite.Run("authentication failed", func() {
		suite.authUseCaseMock.
			On("Authenticate", mock.Anything, "alice", "wrong").
			Once().
			Return(nil, &entity.AuthError{Reason: "Incorrect username or password."})

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"username": "alice", "password": "wrong"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("error", "Authentication failed")
		resp.HasValue("message", "Incorrect username or password.")
	})

	suite.Run("server error", func() {
		suite.authUseCaseMock.
			On("Authenticate", mock.Anything, "alice", "p4ss").
			Once().
			Return(nil, errors.New("connection reset"))

		suite.e.POST(path).
			WithJSON(map[string]string{"username": "alice", "password": "p4ss"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("error", "Something went wrong")
	})

	suite.Run("success", func() {
		suite.authUseCaseMock.
			On("Authenticate", mock.Anything, "alice", "p4ss").
			Once().
			Return(&entity.AuthTokens{
				AccessToken: "access",
				IDToken:     "id",
				TokenType:   "Bearer",
				ExpiresIn:   3600,
			}, nil)

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"username": "alice", "password": "p4ss"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("message", "Authentication successful")
		result := resp.Value("AuthenticationResult").Object()
		result.HasValue("AccessToken", "access")
		result.HasValue("IdToken", "id")
		result.HasValue("ExpiresIn", 3600)
		result.NotContainsKey("RefreshToken")
	})
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestRouterWithoutAuth(t *testing.T) {
	linkUseCaseMock := httpMock.NewMockLinkUseCase(t)
	redirectMock := httpMock.NewMockRedirectUseCase(t)

	router := NewRouter(httplog.NewLogger("", httplog.Options{Writer: io.Discard}), linkUseCaseMock, redirectMock)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	e := httpexpect.Default(t, server.URL)

	linkUseCaseMock.
		On("Shorten", mock.Anything, mock.MatchedBy(func(in usecase.ShortenInput) bool {
			return in.OwnerID == entity.AnonymousOwner
		})).
		Once().
		Return(&entity.ShortLink{ShortURL: "https://sho.rt/abc1234"}, nil)

	e.POST("/api/v1/shorten").
		WithHeader("Authorization", "Bearer ignored").
		WithJSON(map[string]string{"long_url": "https://example.com"}).
		Expect().
		Status(http.StatusOK)

	e.POST("/api/v1/auth/login").
		WithJSON(map[string]string{"username": "alice", "password": "p4ss"}).
		Expect().
		Status(http.StatusNotFound)
}
