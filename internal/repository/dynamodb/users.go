package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	apperrors "worldgraph-backend/pkg/errors"
)

type userItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"` // USER
	UserID      string `dynamodbav:"UserID"`
	DisplayName string `dynamodbav:"DisplayName"`
	Role        string `dynamodbav:"Role"`
	Reputation  int    `dynamodbav:"Reputation"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// FindUser returns the user with the given id.
func (s *Store) FindUser(ctx context.Context, id string) (*domain.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(id)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("user")
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal user", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &domain.User{
		ID:          item.UserID,
		DisplayName: item.DisplayName,
		Role:        domain.Role(item.Role),
		Reputation:  item.Reputation,
		CreatedAt:   createdAt,
	}, nil
}

// UpsertUser creates or replaces a user record.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	item := userItem{
		PK:          userPK(u.ID),
		SK:          metadataSK,
		EntityType:  "USER",
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		Reputation:  u.Reputation,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal user", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		s.logger.Error("Failed to upsert user",
			zap.Error(err),
			zap.String("userID", u.ID),
		)
		return apperrors.NewDatabaseError("upsert user", err)
	}
	return nil
}
