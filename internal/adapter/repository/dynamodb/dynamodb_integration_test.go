//go:build integration

package dynamodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/shortlink/internal/entity"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func setupDynamoDB(t testing.TB) *awsdynamodb.Client {
	t.Helper()

	ctx := context.Background()

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "amazon/dynamodb-local:2.5.2",
			Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory"},
			ExposedPorts: []string{"8000/tcp"},
			WaitingFor:   wait.ForListeningPort("8000/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start dynamodb container: %v", err)
	}
	t.Cleanup(func() {
		if err := cont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate dynamodb container: %v", err)
		}
	})

	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "8000")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := awsdynamodb.New(awsdynamodb.Options{
		Region:       "ap-south-1",
		Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		BaseEndpoint: aws.String(fmt.Sprintf("http://%s:%s", host, port.Port())),
	})

	_, err = client.CreateTable(ctx, &awsdynamodb.CreateTableInput{
		TableName: aws.String(testTable),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("short_id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("short_id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	return client
}

type LinkRepositoryIntegrationTestSuite struct {
	suite.Suite
	repo *LinkRepository
}

func (suite *LinkRepositoryIntegrationTestSuite) SetupSuite() {
	suite.repo = NewLinkRepository(setupDynamoDB(suite.T()), testTable)
}

func (suite *LinkRepositoryIntegrationTestSuite) TearDownSubTest() {
	suite.repo.now = time.Now
}

func newLink(shortID string) *entity.ShortLink {
	createdAt := time.Now().UTC().Truncate(time.Second)

	return &entity.ShortLink{
		ShortID:   shortID,
		LongURL:   "https://example.com/?x=1",
		ShortURL:  "https://sho.rt/" + shortID,
		OwnerID:   entity.AnonymousOwner,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Hour).Unix(),
		Analytics: map[string]string{"x": "1"},
	}
}

func (suite *LinkRepositoryIntegrationTestSuite) TestLifecycle() {
	ctx := context.Background()

	suite.Run("save get increment", func() {
		link := newLink("life001")
		suite.Require().NoError(suite.repo.Save(ctx, link))

		exists, err := suite.repo.Exists(ctx, "life001")
		suite.Require().NoError(err)
		suite.True(exists)

		suite.Require().NoError(suite.repo.IncrementHits(ctx, "life001"))

		got, err := suite.repo.Get(ctx, "life001")
		suite.Require().NoError(err)
		suite.EqualValues(1, got.HitCount)
		suite.Equal(link.Analytics, got.Analytics)
	})

	suite.Run("conditional write", func() {
		suite.Require().NoError(suite.repo.Save(ctx, newLink("cond001")))

		err := suite.repo.Save(ctx, newLink("cond001"))

		suite.ErrorIs(err, entity.ErrShortIDExists)
	})

	suite.Run("expired item reclaimed", func() {
		suite.Require().NoError(suite.repo.Save(ctx, newLink("exp0001")))
		suite.repo.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := suite.repo.Get(ctx, "exp0001")
		suite.ErrorIs(err, entity.ErrLinkNotFound)

		suite.NoError(suite.repo.Save(ctx, newLink("exp0001")))
	})

	suite.Run("increment missing item", func() {
		err := suite.repo.IncrementHits(ctx, "missing")

		suite.ErrorIs(err, entity.ErrLinkNotFound)
	})
}

func TestLinkRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(LinkRepositoryIntegrationTestSuite))
}
