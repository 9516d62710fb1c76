package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	apperrors "worldgraph-backend/pkg/errors"
)

// sourceItem is a citation node shared across claims.
type sourceItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"` // SOURCE
	SourceID    string `dynamodbav:"SourceID"`
	SourceType  string `dynamodbav:"SourceType"`
	Title       string `dynamodbav:"Title"`
	URL         string `dynamodbav:"URL,omitempty"`
	Publisher   string `dynamodbav:"Publisher,omitempty"`
	Author      string `dynamodbav:"Author,omitempty"`
	PublishedAt string `dynamodbav:"PublishedAt,omitempty"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// evidenceItem links a source to a claim. AttachedAt preserves link order for
// evidence previews.
type evidenceItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"` // EVIDENCE
	ClaimID       string `dynamodbav:"ClaimID"`
	SourceID      string `dynamodbav:"SourceID"`
	AddedByUserID string `dynamodbav:"AddedByUserID"`
	AttachedAt    string `dynamodbav:"AttachedAt"`
}

func (item *sourceItem) toSource() domain.Source {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	src := domain.Source{
		ID:         item.SourceID,
		SourceType: domain.SourceType(item.SourceType),
		Title:      item.Title,
		URL:        item.URL,
		Publisher:  item.Publisher,
		Author:     item.Author,
		CreatedAt:  createdAt,
	}
	if item.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.PublishedAt); err == nil {
			src.PublishedAt = &t
		}
	}
	return src
}

// UpsertSource creates the source if its id is new; an existing id keeps the
// stored node untouched.
func (s *Store) UpsertSource(ctx context.Context, src *domain.Source) error {
	item := sourceItem{
		PK:         sourcePK(src.ID),
		SK:         metadataSK,
		EntityType: "SOURCE",
		SourceID:   src.ID,
		SourceType: string(src.SourceType),
		Title:      src.Title,
		URL:        src.URL,
		Publisher:  src.Publisher,
		Author:     src.Author,
		CreatedAt:  src.CreatedAt.Format(time.RFC3339Nano),
	}
	if src.PublishedAt != nil {
		item.PublishedAt = src.PublishedAt.Format(time.RFC3339Nano)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal source", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		s.logger.Error("Failed to upsert source",
			zap.Error(err),
			zap.String("sourceID", src.ID),
		)
		return apperrors.NewDatabaseError("upsert source", err)
	}
	return nil
}

// LinkEvidence attaches a source to a claim. Linking the same pair again is
// a no-op.
func (s *Store) LinkEvidence(ctx context.Context, claimID, sourceID, addedByUserID string) error {
	item := evidenceItem{
		PK:            claimPK(claimID),
		SK:            evidenceSK(sourceID),
		EntityType:    "EVIDENCE",
		ClaimID:       claimID,
		SourceID:      sourceID,
		AddedByUserID: addedByUserID,
		AttachedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal evidence link", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		s.logger.Error("Failed to link evidence",
			zap.Error(err),
			zap.String("claimID", claimID),
			zap.String("sourceID", sourceID),
		)
		return apperrors.NewDatabaseError("link evidence", err)
	}
	return nil
}

// SourcesByClaim returns distinct linked sources in attach order.
func (s *Store) SourcesByClaim(ctx context.Context, claimID string) ([]domain.Source, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(claimPK(claimID))).
		And(expression.Key("SK").BeginsWith("EVIDENCE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build evidence expression", err)
	}

	raws, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("query evidence", err)
	}
	if len(raws) == 0 {
		return []domain.Source{}, nil
	}

	links := make([]evidenceItem, 0, len(raws))
	for _, raw := range raws {
		var item evidenceItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, apperrors.NewDatabaseError("unmarshal evidence link", err)
		}
		links = append(links, item)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].AttachedAt != links[j].AttachedAt {
			return links[i].AttachedAt < links[j].AttachedAt
		}
		return links[i].SourceID < links[j].SourceID
	})

	sources := make([]domain.Source, 0, len(links))
	for _, link := range links {
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: sourcePK(link.SourceID)},
				"SK": &types.AttributeValueMemberS{Value: metadataSK},
			},
		})
		if err != nil {
			return nil, apperrors.NewDatabaseError("get source", err)
		}
		if out.Item == nil {
			continue
		}
		var item sourceItem
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return nil, apperrors.NewDatabaseError("unmarshal source", err)
		}
		sources = append(sources, item.toSource())
	}
	return sources, nil
}
