package dynamodb

import (
	"context"
	"strings"
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

// entityItem is the DynamoDB item shape for Person and Event nodes. GSI1
// partitions entities by kind with a (nameLower, id) sort key so name search
// scans one kind in output order.
type entityItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"` // PERSON or EVENT
	EntityID   string `dynamodbav:"EntityID"`
	Name       string `dynamodbav:"Name"`
	NameLower  string `dynamodbav:"NameLower"`
	WikidataID string `dynamodbav:"WikidataID,omitempty"`
	EventType  string `dynamodbav:"EventType,omitempty"`
	StartDate  string `dynamodbav:"StartDate,omitempty"`
	EndDate    string `dynamodbav:"EndDate,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`

	ShortDescription string `dynamodbav:"ShortDescription,omitempty"`
	Summary          string `dynamodbav:"Summary,omitempty"`
	WikipediaTitle   string `dynamodbav:"WikipediaTitle,omitempty"`
	WikipediaURL     string `dynamodbav:"WikipediaURL,omitempty"`
	ThumbnailURL     string `dynamodbav:"ThumbnailURL,omitempty"`
	SummaryUpdatedAt string `dynamodbav:"SummaryUpdatedAt,omitempty"`
}

func kindPartition(kind domain.EntityKind) string {
	return "KIND#" + string(kind)
}

func personToItem(p *domain.Person) entityItem {
	item := entityItem{
		PK:         entityPK(p.ID),
		SK:         metadataSK,
		GSI1PK:     kindPartition(domain.KindPerson),
		GSI1SK:     strings.ToLower(p.Name) + "#" + p.ID,
		EntityType: "PERSON",
		EntityID:   p.ID,
		Name:       p.Name,
		NameLower:  strings.ToLower(p.Name),
		WikidataID: p.WikidataID,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339Nano),
	}
	item.applyEnrichment(p.Enrichment)
	return item
}

func eventToItem(e *domain.Event) entityItem {
	item := entityItem{
		PK:         entityPK(e.ID),
		SK:         metadataSK,
		GSI1PK:     kindPartition(domain.KindEvent),
		GSI1SK:     strings.ToLower(e.Name) + "#" + e.ID,
		EntityType: "EVENT",
		EntityID:   e.ID,
		Name:       e.Name,
		NameLower:  strings.ToLower(e.Name),
		WikidataID: e.WikidataID,
		EventType:  e.EventType,
		StartDate:  e.StartDate.Format(time.RFC3339Nano),
		CreatedAt:  e.CreatedAt.Format(time.RFC3339Nano),
	}
	if e.EndDate != nil {
		item.EndDate = e.EndDate.Format(time.RFC3339Nano)
	}
	item.applyEnrichment(e.Enrichment)
	return item
}

func (item *entityItem) applyEnrichment(e domain.Enrichment) {
	item.ShortDescription = e.ShortDescription
	item.Summary = e.Summary
	item.WikipediaTitle = e.WikipediaTitle
	item.WikipediaURL = e.WikipediaURL
	item.ThumbnailURL = e.ThumbnailURL
	if e.SummaryUpdatedAt != nil {
		item.SummaryUpdatedAt = e.SummaryUpdatedAt.Format(time.RFC3339Nano)
	}
}

func (item *entityItem) enrichment() domain.Enrichment {
	e := domain.Enrichment{
		ShortDescription: item.ShortDescription,
		Summary:          item.Summary,
		WikipediaTitle:   item.WikipediaTitle,
		WikipediaURL:     item.WikipediaURL,
		ThumbnailURL:     item.ThumbnailURL,
	}
	if item.SummaryUpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.SummaryUpdatedAt); err == nil {
			e.SummaryUpdatedAt = &t
		}
	}
	return e
}

func (item *entityItem) toPerson() *domain.Person {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	return &domain.Person{
		ID:         item.EntityID,
		Name:       item.Name,
		WikidataID: item.WikidataID,
		Enrichment: item.enrichment(),
		CreatedAt:  createdAt,
	}
}

func (item *entityItem) toEvent() *domain.Event {
	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	startDate, _ := time.Parse(time.RFC3339Nano, item.StartDate)
	e := &domain.Event{
		ID:         item.EntityID,
		Name:       item.Name,
		EventType:  item.EventType,
		StartDate:  startDate,
		WikidataID: item.WikidataID,
		Enrichment: item.enrichment(),
		CreatedAt:  createdAt,
	}
	if item.EndDate != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.EndDate); err == nil {
			e.EndDate = &t
		}
	}
	return e
}

// SavePerson persists a person node.
func (s *Store) SavePerson(ctx context.Context, p *domain.Person) error {
	return s.putEntity(ctx, personToItem(p))
}

// SaveEvent persists an event node.
func (s *Store) SaveEvent(ctx context.Context, e *domain.Event) error {
	return s.putEntity(ctx, eventToItem(e))
}

func (s *Store) putEntity(ctx context.Context, item entityItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewDatabaseError("marshal entity", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		s.logger.Error("Failed to save entity",
			zap.Error(err),
			zap.String("entityID", item.EntityID),
		)
		return apperrors.NewDatabaseError("save entity", err)
	}
	return nil
}

func (s *Store) getEntity(ctx context.Context, id string) (*entityItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: entityPK(id)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("get entity", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var item entityItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal entity", err)
	}
	return &item, nil
}

// FindPerson returns the person with the given id.
func (s *Store) FindPerson(ctx context.Context, id string) (*domain.Person, error) {
	item, err := s.getEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.EntityType != "PERSON" {
		return nil, apperrors.NewNotFoundError("person")
	}
	return item.toPerson(), nil
}

// FindEvent returns the event with the given id.
func (s *Store) FindEvent(ctx context.Context, id string) (*domain.Event, error) {
	item, err := s.getEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.EntityType != "EVENT" {
		return nil, apperrors.NewNotFoundError("event")
	}
	return item.toEvent(), nil
}

// batchGetEntities fetches entity items by id, preserving request order and
// skipping missing ids. BatchGetItem caps at 100 keys per call.
func (s *Store) batchGetEntities(ctx context.Context, ids []string) (map[string]*entityItem, error) {
	found := make(map[string]*entityItem, len(ids))
	for start := 0; start < len(ids); start += 100 {
		end := start + 100
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: entityPK(id)},
				"SK": &types.AttributeValueMemberS{Value: metadataSK},
			})
		}

		request := map[string]types.KeysAndAttributes{
			s.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, apperrors.NewDatabaseError("batch get entities", err)
			}
			for _, raw := range out.Responses[s.tableName] {
				var item entityItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					return nil, apperrors.NewDatabaseError("unmarshal entity", err)
				}
				found[item.EntityID] = &item
			}
			if len(out.UnprocessedKeys) == 0 {
				break
			}
			request = out.UnprocessedKeys
		}
	}
	return found, nil
}

// FindPeople returns the people for the requested ids in request order,
// skipping missing ids.
func (s *Store) FindPeople(ctx context.Context, ids []string) ([]domain.Person, error) {
	found, err := s.batchGetEntities(ctx, ids)
	if err != nil {
		return nil, err
	}
	people := make([]domain.Person, 0, len(ids))
	for _, id := range ids {
		if item, ok := found[id]; ok && item.EntityType == "PERSON" {
			people = append(people, *item.toPerson())
		}
	}
	return people, nil
}

// FindEvents returns the events for the requested ids in request order,
// skipping missing ids.
func (s *Store) FindEvents(ctx context.Context, ids []string) ([]domain.Event, error) {
	found, err := s.batchGetEntities(ctx, ids)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		if item, ok := found[id]; ok && item.EntityType == "EVENT" {
			events = append(events, *item.toEvent())
		}
	}
	return events, nil
}

// UpdateEnrichment merges non-empty enrichment fields onto the stored entity.
func (s *Store) UpdateEnrichment(ctx context.Context, id string, kind domain.EntityKind, e domain.Enrichment) error {
	item, err := s.getEntity(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return apperrors.NewNotFoundError("entity")
	}

	merged := item.enrichment()
	if e.ShortDescription != "" {
		merged.ShortDescription = e.ShortDescription
	}
	if e.Summary != "" {
		merged.Summary = e.Summary
	}
	if e.WikipediaTitle != "" {
		merged.WikipediaTitle = e.WikipediaTitle
	}
	if e.WikipediaURL != "" {
		merged.WikipediaURL = e.WikipediaURL
	}
	if e.ThumbnailURL != "" {
		merged.ThumbnailURL = e.ThumbnailURL
	}
	if e.SummaryUpdatedAt != nil {
		merged.SummaryUpdatedAt = e.SummaryUpdatedAt
	}
	item.SummaryUpdatedAt = ""
	item.applyEnrichment(merged)

	return s.putEntity(ctx, *item)
}

// SearchPeople matches the query case-insensitively as a name substring.
func (s *Store) SearchPeople(ctx context.Context, query string, limit int) ([]domain.Person, error) {
	items, err := s.searchEntities(ctx, domain.KindPerson, query, limit)
	if err != nil {
		return nil, err
	}
	people := make([]domain.Person, 0, len(items))
	for _, item := range items {
		people = append(people, *item.toPerson())
	}
	return people, nil
}

// SearchEvents matches the query case-insensitively as a name substring.
func (s *Store) SearchEvents(ctx context.Context, query string, limit int) ([]domain.Event, error) {
	items, err := s.searchEntities(ctx, domain.KindEvent, query, limit)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(items))
	for _, item := range items {
		events = append(events, *item.toEvent())
	}
	return events, nil
}

// searchEntities queries one kind partition of GSI1 in (nameLower, id) order,
// filtering server-side on the lowercased substring, and stops once the limit
// is satisfied.
func (s *Store) searchEntities(ctx context.Context, kind domain.EntityKind, query string, limit int) ([]entityItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(kindPartition(kind)))
	filter := expression.Contains(expression.Name("NameLower"), strings.ToLower(query))
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, apperrors.NewDatabaseError("build search expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}

	var items []entityItem
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, apperrors.NewDatabaseError("search entities", err)
		}
		for _, raw := range out.Items {
			var item entityItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, apperrors.NewDatabaseError("unmarshal entity", err)
			}
			items = append(items, item)
			if len(items) >= limit {
				return items, nil
			}
		}
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
