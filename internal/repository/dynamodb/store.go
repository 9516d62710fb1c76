// Package dynamodb implements the repository contract on a single DynamoDB
// table. Entities, claims, votes, evidence links, sources and users share the
// table under a composite PK/SK scheme; two global secondary indexes serve
// name search (GSI1) and object-side claim traversal (GSI2).
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"worldgraph-backend/internal/repository"
)

// Store implements repository.Repository on a single DynamoDB table.
type Store struct {
	client    *dynamodb.Client
	tableName string
	gsi1Name  string // KIND#<kind> / <nameLower>#<id> plus CLAIMID point lookups
	gsi2Name  string // ENTITY#<objectID> / CLAIM#<createdAt>#<id>
	logger    *zap.Logger
}

// NewStore creates a DynamoDB-backed store.
func NewStore(client *dynamodb.Client, tableName, gsi1Name, gsi2Name string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		gsi1Name:  gsi1Name,
		gsi2Name:  gsi2Name,
		logger:    logger,
	}
}

var _ repository.Repository = (*Store)(nil)

// Key prefixes. Claims sort under their subject partition by creation time,
// with the claim id as tiebreak, so a prefix query returns them in the
// (createdAt, id) order the traversal contract requires.
func entityPK(id string) string { return fmt.Sprintf("ENTITY#%s", id) }
func claimPK(id string) string  { return fmt.Sprintf("CLAIM#%s", id) }
func sourcePK(id string) string { return fmt.Sprintf("SOURCE#%s", id) }
func userPK(id string) string   { return fmt.Sprintf("USER#%s", id) }

func claimSK(nano int64, id string) string {
	return fmt.Sprintf("CLAIM#%020d#%s", nano, id)
}

func voteSK(userID string) string { return fmt.Sprintf("VOTE#%s", userID) }

func evidenceSK(sourceID string) string {
	return fmt.Sprintf("EVIDENCE#%s", sourceID)
}

const metadataSK = "METADATA"

// isConditionalCheckFailed reports whether the error is a failed condition
// expression, which the callers translate into conflict or no-op semantics.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tcx *types.TransactionCanceledException
	if errors.As(err, &tcx) {
		for _, reason := range tcx.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// queryAll drains a query across pages.
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}
