package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	apperrors "worldgraph-backend/pkg/errors"
)

// voteItem keys a user's single vote on a claim. Re-voting overwrites the
// item in place; CreatedAt keeps the first-vote timestamp.
type voteItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"` // VOTE
	UserID     string `dynamodbav:"UserID"`
	ClaimID    string `dynamodbav:"ClaimID"`
	Value      int    `dynamodbav:"Value"`
	Weight     int    `dynamodbav:"Weight"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func (item *voteItem) toVote() domain.Vote {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return domain.Vote{
		UserID:    item.UserID,
		ClaimID:   item.ClaimID,
		Value:     item.Value,
		Weight:    item.Weight,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// UpsertVote creates or overwrites the user's vote on a claim. The original
// CreatedAt survives a re-vote through an if_not_exists update.
func (s *Store) UpsertVote(ctx context.Context, v *domain.Vote) error {
	now := time.Now().UTC()
	createdAt, updatedAt := v.CreatedAt, v.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	update := expression.
		Set(expression.Name("EntityType"), expression.Value("VOTE")).
		Set(expression.Name("UserID"), expression.Value(v.UserID)).
		Set(expression.Name("ClaimID"), expression.Value(v.ClaimID)).
		Set(expression.Name("Value"), expression.Value(v.Value)).
		Set(expression.Name("Weight"), expression.Value(v.Weight)).
		Set(expression.Name("UpdatedAt"), expression.Value(updatedAt.Format(time.RFC3339Nano))).
		Set(expression.Name("CreatedAt"),
			expression.IfNotExists(expression.Name("CreatedAt"),
				expression.Value(createdAt.Format(time.RFC3339Nano))))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return apperrors.NewDatabaseError("build vote expression", err)
	}

	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": claimPK(v.ClaimID),
		"SK": voteSK(v.UserID),
	})
	if err != nil {
		return apperrors.NewDatabaseError("marshal vote key", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		s.logger.Error("Failed to upsert vote",
			zap.Error(err),
			zap.String("claimID", v.ClaimID),
			zap.String("userID", v.UserID),
		)
		return apperrors.NewDatabaseError("upsert vote", err)
	}
	return nil
}

// VotesByClaim returns the claim's complete live vote set ordered by
// (createdAt, userID) ascending.
func (s *Store) VotesByClaim(ctx context.Context, claimID string) ([]domain.Vote, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(claimPK(claimID))).
		And(expression.Key("SK").BeginsWith("VOTE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build votes expression", err)
	}

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("query votes", err)
	}

	votes := make([]domain.Vote, 0, len(items))
	for _, raw := range items {
		var item voteItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("unmarshal vote", err)
		}
		votes = append(votes, item.toVote())
	}
	sort.Slice(votes, func(i, j int) bool {
		if !votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].CreatedAt.Before(votes[j].CreatedAt)
		}
		return votes[i].UserID < votes[j].UserID
	})
	return votes, nil
}
