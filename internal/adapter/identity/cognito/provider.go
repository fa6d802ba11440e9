// Package cognito talks to an Amazon Cognito user pool: it runs password
// logins and verifies the JWTs the pool issues.
package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

type Provider struct {
	client cognitoAPI
}

func NewProvider(client cognitoAPI) *Provider {
	return &Provider{client: client}
}

// InitiatePasswordAuth runs the USER_PASSWORD_AUTH flow. Errors the user pool
// attributes to the caller are returned as *entity.AuthError with the pool's
// message. A challenge response is treated as a failed login.
func (p *Provider) InitiatePasswordAuth(ctx context.Context, req entity.PasswordAuth) (*entity.AuthTokens, error) {
	const op = "adapter.identity.cognito.Provider.InitiatePasswordAuth"

	params := map[string]string{
		"USERNAME": req.Username,
		"PASSWORD": req.Password,
	}
	if req.SecretHash != "" {
		params["SECRET_HASH"] = req.SecretHash
	}

	out, err := p.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(req.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorFault() != smithy.FaultServer {
			return nil, fmt.Errorf("%s: %w", op, &entity.AuthError{Reason: apiErr.ErrorMessage()})
		}

		return nil, fmt.Errorf("%s: failed to initiate auth: %w", op, err)
	}

	res := out.AuthenticationResult
	if res == nil {
		return nil, fmt.Errorf("%s: %w", op, &entity.AuthError{
			Reason: "challenge required: " + string(out.ChallengeName),
		})
	}

	return &entity.AuthTokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		TokenType:    aws.ToString(res.TokenType),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}
