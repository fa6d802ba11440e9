package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"

	mocks "github.com/vadimbarashkov/shortlink/mocks/usecase"
)

type AuthUseCaseTestSuite struct {
	suite.Suite
	providerMock *mocks.MockIdentityProvider
	uc           *AuthUseCase
}

func (suite *AuthUseCaseTestSuite) SetupSubTest() {
	suite.providerMock = mocks.NewMockIdentityProvider(suite.T())
	suite.uc = NewAuthUseCase(suite.providerMock, "client", "secret")
}

func (suite *AuthUseCaseTestSuite) TearDownSubTest() {
	suite.providerMock.AssertExpectations(suite.T())
}

func (suite *AuthUseCaseTestSuite) TestAuthenticate() {
	ctx := context.Background()
	req := entity.PasswordAuth{
		ClientID:   "client",
		Username:   "alice",
		Password:   "p4ss",
		SecretHash: SecretHash("secret", "alice", "client"),
	}

	suite.Run("missing credentials", func() {
		tokens, err := suite.uc.Authenticate(ctx, "", "p4ss")

		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(tokens)
	})

	suite.Run("rejected", func() {
		suite.providerMock.
			On("InitiatePasswordAuth", ctx, req).
			Once().
			Return(nil, &entity.AuthError{Reason: "Incorrect username or password."})

		tokens, err := suite.uc.Authenticate(ctx, "alice", "p4ss")

		var authErr *entity.AuthError
		suite.Require().ErrorAs(err, &authErr)
		suite.Equal("Incorrect username or password.", authErr.Reason)
		suite.ErrorIs(err, entity.ErrAuthFailed)
		suite.Nil(tokens)
	})

	suite.Run("provider error", func() {
		errUnknown := errors.New("connection reset")
		suite.providerMock.
			On("InitiatePasswordAuth", ctx, req).
			Once().
			Return(nil, errUnknown)

		tokens, err := suite.uc.Authenticate(ctx, "alice", "p4ss")

		suite.ErrorIs(err, errUnknown)
		suite.NotErrorIs(err, entity.ErrAuthFailed)
		suite.Nil(tokens)
	})

	suite.Run("success", func() {
		suite.providerMock.
			On("InitiatePasswordAuth", ctx, req).
			Once().
			Return(&entity.AuthTokens{AccessToken: "access", IDToken: "id", TokenType: "Bearer", ExpiresIn: 3600}, nil)

		tokens, err := suite.uc.Authenticate(ctx, "alice", "p4ss")

		suite.Require().NoError(err)
		suite.Equal("access", tokens.AccessToken)
		suite.Equal("id", tokens.IDToken)
	})
}

func TestAuthUseCase(t *testing.T) {
	suite.Run(t, new(AuthUseCaseTestSuite))
}

func TestSecretHash(t *testing.T) {
	got := SecretHash("secret", "alice", "client")

	assert.Equal(t, "RTsve+FQ659UKyESgvLg9GYmZEL+QjzQsW/OjL77/b0=", got)
	assert.NotEqual(t, got, SecretHash("secret", "alice", "other"))
	assert.NotEqual(t, got, SecretHash("other", "alice", "client"))
}

func TestAuthenticateWithoutSecret(t *testing.T) {
	providerMock := mocks.NewMockIdentityProvider(t)
	uc := NewAuthUseCase(providerMock, "client", "")

	providerMock.
		On("InitiatePasswordAuth", context.Background(), entity.PasswordAuth{
			ClientID: "client",
			Username: "alice",
			Password: "p4ss",
		}).
		Once().
		Return(&entity.AuthTokens{AccessToken: "access"}, nil)

	tokens, err := uc.Authenticate(context.Background(), "alice", "p4ss")

	assert.NoError(t, err)
	assert.Equal(t, "access", tokens.AccessToken)
}
