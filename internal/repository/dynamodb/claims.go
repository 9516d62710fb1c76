package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	apperrors "worldgraph-backend/pkg/errors"
)

// claimItem stores a claim edge under its subject partition. GSI2 mirrors the
// edge under the object partition for reverse traversal; GSI1 gives a point
// lookup by claim id.
type claimItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	GSI2PK string `dynamodbav:"GSI2PK"`
	GSI2SK string `dynamodbav:"GSI2SK"`

	EntityType       string `dynamodbav:"EntityType"` // CLAIM
	ClaimID          string `dynamodbav:"ClaimID"`
	ClaimType        string `dynamodbav:"ClaimType"`
	RelationshipType string `dynamodbav:"RelationshipType"`
	SubjectID        string `dynamodbav:"SubjectID"`
	ObjectID         string `dynamodbav:"ObjectID"`
	Status           string `dynamodbav:"Status"`
	Score            int    `dynamodbav:"Score"`
	UpWeight         int    `dynamodbav:"UpWeight"`
	DownWeight       int    `dynamodbav:"DownWeight"`
	UniqueVoters     int    `dynamodbav:"UniqueVoters"`
	EvidenceCount    int    `dynamodbav:"EvidenceCount"`
	CreatedAt        string `dynamodbav:"CreatedAt"`
	CreatedAtNano    int64  `dynamodbav:"CreatedAtNano"`
	CreatedByUserID  string `dynamodbav:"CreatedByUserID"`
	Version          int    `dynamodbav:"Version"`
}

func claimToItem(c *domain.Claim) claimItem {
	nano := c.CreatedAt.UnixNano()
	sk := claimSK(nano, c.ID)
	return claimItem{
		PK:               entityPK(c.SubjectID),
		SK:               sk,
		GSI1PK:           "CLAIMID#" + c.ID,
		GSI1SK:           "CLAIMID#" + c.ID,
		GSI2PK:           entityPK(c.ObjectID),
		GSI2SK:           sk,
		EntityType:       "CLAIM",
		ClaimID:          c.ID,
		ClaimType:        string(c.ClaimType),
		RelationshipType: c.RelationshipType,
		SubjectID:        c.SubjectID,
		ObjectID:         c.ObjectID,
		Status:           string(c.Status),
		Score:            c.Score,
		UpWeight:         c.UpWeight,
		DownWeight:       c.DownWeight,
		UniqueVoters:     c.UniqueVoters,
		EvidenceCount:    c.EvidenceCount,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339Nano),
		CreatedAtNano:    nano,
		CreatedByUserID:  c.CreatedByUserID,
		Version:          c.Version,
	}
}

func (item *claimItem) toClaim() *domain.Claim {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &domain.Claim{
		ID:               item.ClaimID,
		ClaimType:        domain.ClaimType(item.ClaimType),
		RelationshipType: item.RelationshipType,
		SubjectID:        item.SubjectID,
		ObjectID:         item.ObjectID,
		Status:           domain.ClaimStatus(item.Status),
		Score:            item.Score,
		UpWeight:         item.UpWeight,
		DownWeight:       item.DownWeight,
		UniqueVoters:     item.UniqueVoters,
		EvidenceCount:    item.EvidenceCount,
		CreatedAt:        createdAt,
		CreatedByUserID:  item.CreatedByUserID,
		Version:          item.Version,
	}
}

// CreateClaim writes a new claim edge. The id is caller-generated and fresh,
// so the write is conditioned on the key not existing.
func (s *Store) CreateClaim(ctx context.Context, c *domain.Claim) error {
	av, err := attributevalue.MarshalMap(claimToItem(c))
	if err != nil {
		return apperrors.NewDatabaseError("marshal claim", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewConflictError("claim already exists")
		}
		s.logger.Error("Failed to create claim",
			zap.Error(err),
			zap.String("claimID", c.ID),
		)
		return apperrors.NewDatabaseError("create claim", err)
	}
	return nil
}

// FindClaim looks up a claim by id through the GSI1 point index.
func (s *Store) FindClaim(ctx context.Context, id string) (*domain.Claim, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("CLAIMID#" + id))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build claim expression", err)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("find claim", err)
	}
	if len(out.Items) == 0 {
		return nil, apperrors.NewNotFoundError("claim")
	}
	var item claimItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal claim", err)
	}
	return item.toClaim(), nil
}

// ClaimsBySubject returns claims whose subject is the given entity, in
// (createdAt, id) ascending order.
func (s *Store) ClaimsBySubject(ctx context.Context, subjectID string, f repository.ClaimFilter) ([]domain.Claim, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(entityPK(subjectID))).
		And(expression.Key("SK").BeginsWith("CLAIM#"))
	return s.queryClaims(ctx, keyCond, "", f)
}

// ClaimsByObject returns claims whose object is the given entity, in
// (createdAt, id) ascending order, via GSI2.
func (s *Store) ClaimsByObject(ctx context.Context, objectID string, f repository.ClaimFilter) ([]domain.Claim, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(entityPK(objectID))).
		And(expression.Key("GSI2SK").BeginsWith("CLAIM#"))
	return s.queryClaims(ctx, keyCond, s.gsi2Name, f)
}

func (s *Store) queryClaims(ctx context.Context, keyCond expression.KeyConditionBuilder, indexName string, f repository.ClaimFilter) ([]domain.Claim, error) {
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if !f.IncludePending {
		builder = builder.WithFilter(
			expression.Name("Status").Equal(expression.Value(string(domain.StatusApproved))),
		)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build claims expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	if indexName != "" {
		input.IndexName = aws.String(indexName)
	}

	items, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, apperrors.NewDatabaseError("query claims", err)
	}
	claims := make([]domain.Claim, 0, len(items))
	for _, raw := range items {
		var item claimItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("unmarshal claim", err)
		}
		claims = append(claims, *item.toClaim())
	}
	return claims, nil
}

// UpdateClaimAggregates writes the recomputed aggregates and status,
// conditioned on the stored version still matching expectedVersion. A failed
// condition surfaces as a conflict so the ledger re-reads and retries.
func (s *Store) UpdateClaimAggregates(ctx context.Context, c *domain.Claim, expectedVersion int) error {
	update := expression.
		Set(expression.Name("Score"), expression.Value(c.Score)).
		Set(expression.Name("UpWeight"), expression.Value(c.UpWeight)).
		Set(expression.Name("DownWeight"), expression.Value(c.DownWeight)).
		Set(expression.Name("UniqueVoters"), expression.Value(c.UniqueVoters)).
		Set(expression.Name("EvidenceCount"), expression.Value(c.EvidenceCount)).
		Set(expression.Name("Status"), expression.Value(string(c.Status))).
		Set(expression.Name("Version"), expression.Value(expectedVersion+1))
	cond := expression.Name("Version").Equal(expression.Value(expectedVersion))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewDatabaseError("build aggregate expression", err)
	}

	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": entityPK(c.SubjectID),
		"SK": claimSK(c.CreatedAt.UnixNano(), c.ID),
	})
	if err != nil {
		return apperrors.NewDatabaseError("marshal claim key", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewConflictError("claim was modified concurrently")
		}
		s.logger.Error("Failed to update claim aggregates",
			zap.Error(err),
			zap.String("claimID", c.ID),
		)
		return apperrors.NewDatabaseError("update claim aggregates", err)
	}
	return nil
}
