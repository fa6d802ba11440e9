// Package awsclient builds AWS service clients from the default credential
// chain.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// LoadConfig resolves credentials and settings for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	const op = "awsclient.LoadConfig"

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("%s: failed to load aws config: %w", op, err)
	}

	return cfg, nil
}

// NewDynamoDB returns a DynamoDB client. A non-empty endpoint overrides the
// regional one, e.g. to reach DynamoDB Local.
func NewDynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func NewCognito(cfg aws.Config) *cognitoidentityprovider.Client {
	return cognitoidentityprovider.NewFromConfig(cfg)
}
