package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository/memory"
	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/internal/service/ledger"
)

// TestClaimToExplanationScenario walks the full collaborative flow: two
// people get claimed onto a shared event, evidence and votes approve the
// claims, and the traversal layer then explains the connection.
func TestClaimToExplanationScenario(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	store := memory.NewStore()

	ledgerSvc := ledger.NewService(store, nil, logger, nil)
	exploreSvc := explore.NewService(store, logger, nil)

	// Seed the cast.
	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:churchill", Name: "Winston Churchill"}))
	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:roosevelt", Name: "Franklin D. Roosevelt"}))
	require.NoError(t, store.SaveEvent(ctx, &domain.Event{
		ID:        "event:yalta",
		Name:      "Yalta Conference",
		EventType: "CONFERENCE",
		StartDate: time.Date(1945, 2, 4, 0, 0, 0, 0, time.UTC),
	}))

	moderators := []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"}
	for _, id := range moderators {
		require.NoError(t, store.UpsertUser(ctx, &domain.User{ID: id, Role: domain.RoleMod}))
	}

	// Propose both claims.
	claimA, err := ledgerSvc.CreateClaim(ctx, "person:churchill", "event:yalta", "PARTICIPATED_IN", moderators[0])
	require.NoError(t, err)
	claimB, err := ledgerSvc.CreateClaim(ctx, "person:roosevelt", "event:yalta", "PARTICIPATED_IN", moderators[0])
	require.NoError(t, err)

	// Pending claims are invisible to the default traversal.
	view, err := exploreSvc.PersonNeighborhood(ctx, "person:churchill", explore.NeighborhoodOptions{LimitEvents: 25, LimitPeople: 50})
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 1)
	assert.Empty(t, view.Edges)

	// Evidence plus four moderator upvotes approve each claim.
	for _, c := range []*domain.Claim{claimA, claimB} {
		_, err = ledgerSvc.AddEvidence(ctx, c.ID, ledger.EvidenceDescriptor{
			SourceType: domain.SourceArchive,
			Title:      "Yalta Conference minutes",
			URL:        "https://example.org/yalta-minutes",
		}, moderators[0])
		require.NoError(t, err)

		var updated *domain.Claim
		for _, voter := range moderators {
			updated, err = ledgerSvc.CastVote(ctx, voter, c.ID, 1)
			require.NoError(t, err)
		}
		assert.Equal(t, domain.StatusApproved, updated.Status)
		assert.Equal(t, 12, updated.Score)
	}

	// The shared source was deduplicated by URL across both claims.
	sourcesA, err := store.SourcesByClaim(ctx, claimA.ID)
	require.NoError(t, err)
	sourcesB, err := store.SourcesByClaim(ctx, claimB.ID)
	require.NoError(t, err)
	require.Len(t, sourcesA, 1)
	require.Len(t, sourcesB, 1)
	assert.Equal(t, sourcesA[0].ID, sourcesB[0].ID)

	// Approved claims surface in the neighborhood.
	view, err = exploreSvc.PersonNeighborhood(ctx, "person:churchill", explore.NeighborhoodOptions{LimitEvents: 25, LimitPeople: 50})
	require.NoError(t, err)
	require.Len(t, view.Nodes, 3)
	assert.Len(t, view.Edges, 2)

	// Connections rank Roosevelt as a one-event partner.
	connections, err := exploreSvc.Connections(ctx, "person:churchill", explore.ConnectionOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, "person:roosevelt", connections[0].Person.ID)
	assert.Equal(t, 1, connections[0].SharedEventCount)
	assert.Equal(t, 24, connections[0].SharedStrength)

	// The explanation names the shared event and both approved claims, with
	// the linked source in each preview.
	explanations, err := exploreSvc.WhyConnected(ctx, "person:churchill", "person:roosevelt", explore.ConnectionOptions{Limit: 20})
	require.NoError(t, err)
	require.Len(t, explanations, 1)
	assert.Equal(t, "event:yalta", explanations[0].Event.ID)
	assert.Equal(t, claimA.ID, explanations[0].ClaimA.ID)
	assert.Equal(t, claimB.ID, explanations[0].ClaimB.ID)
	require.Len(t, explanations[0].EvidencePreviewA, 1)
	require.Len(t, explanations[0].EvidencePreviewB, 1)

	// Shared events preview agrees.
	shared, err := exploreSvc.SharedEvents(ctx, "person:churchill", "person:roosevelt", explore.ConnectionOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "event:yalta", shared[0].ID)

	// The community turns on Churchill's claim; it flips to rejected and
	// drops back out of the default traversal.
	var flipped *domain.Claim
	for _, voter := range moderators {
		flipped, err = ledgerSvc.CastVote(ctx, voter, claimA.ID, -1)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusRejected, flipped.Status)

	view, err = exploreSvc.PersonNeighborhood(ctx, "person:churchill", explore.NeighborhoodOptions{LimitEvents: 25, LimitPeople: 50})
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 1)
	assert.Empty(t, view.Edges)
}
