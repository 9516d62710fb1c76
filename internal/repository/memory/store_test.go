package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	"worldgraph-backend/pkg/errors"
)

func TestEntityLookups(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:a", Name: "Alpha"}))
	require.NoError(t, store.SaveEvent(ctx, &domain.Event{ID: "event:1", Name: "Event One"}))

	t.Run("point lookups", func(t *testing.T) {
		p, err := store.FindPerson(ctx, "person:a")
		require.NoError(t, err)
		assert.Equal(t, "Alpha", p.Name)

		_, err = store.FindPerson(ctx, "person:b")
		assert.True(t, errors.IsNotFound(err))
		_, err = store.FindEvent(ctx, "event:2")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("batch lookups keep request order and skip missing", func(t *testing.T) {
		require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:b", Name: "Beta"}))
		people, err := store.FindPeople(ctx, []string{"person:b", "person:missing", "person:a"})
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, "person:b", people[0].ID)
		assert.Equal(t, "person:a", people[1].ID)
	})
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:2", Name: "Ada Lovelace"}))
	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:1", Name: "Ada Lovelace"}))
	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:3", Name: "Adam Smith"}))

	people, err := store.SearchPeople(ctx, "ada", 10)
	require.NoError(t, err)
	require.Len(t, people, 3)
	// (name, id) ascending; equal names fall back to id order.
	assert.Equal(t, "person:1", people[0].ID)
	assert.Equal(t, "person:2", people[1].ID)
	assert.Equal(t, "person:3", people[2].ID)

	limited, err := store.SearchPeople(ctx, "ada", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestClaimOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	mkClaim := func(id string, createdAt time.Time, status domain.ClaimStatus) {
		require.NoError(t, store.CreateClaim(ctx, &domain.Claim{
			ID:        id,
			SubjectID: "person:a",
			ObjectID:  "event:1",
			Status:    status,
			CreatedAt: createdAt,
		}))
	}
	// Inserted out of creation order on purpose.
	mkClaim("claim:b", base.Add(2*time.Hour), domain.StatusApproved)
	mkClaim("claim:a", base.Add(time.Hour), domain.StatusApproved)
	mkClaim("claim:d", base.Add(3*time.Hour), domain.StatusPending)
	mkClaim("claim:c", base.Add(2*time.Hour), domain.StatusApproved)

	t.Run("subject claims in createdAt then id order", func(t *testing.T) {
		claims, err := store.ClaimsBySubject(ctx, "person:a", repository.ClaimFilter{IncludePending: true})
		require.NoError(t, err)
		ids := make([]string, 0, len(claims))
		for _, c := range claims {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"claim:a", "claim:b", "claim:c", "claim:d"}, ids)
	})

	t.Run("default filter hides pending", func(t *testing.T) {
		claims, err := store.ClaimsByObject(ctx, "event:1", repository.ClaimFilter{})
		require.NoError(t, err)
		assert.Len(t, claims, 3)
		for _, c := range claims {
			assert.Equal(t, domain.StatusApproved, c.Status)
		}
	})

	t.Run("unknown entity yields empty slice", func(t *testing.T) {
		claims, err := store.ClaimsBySubject(ctx, "person:nobody", repository.ClaimFilter{})
		require.NoError(t, err)
		assert.Empty(t, claims)
	})

	t.Run("duplicate claim id conflicts", func(t *testing.T) {
		err := store.CreateClaim(ctx, &domain.Claim{ID: "claim:a", SubjectID: "person:a", ObjectID: "event:1"})
		assert.True(t, errors.IsConflict(err))
	})
}

func TestUpdateClaimAggregatesVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	claim := &domain.Claim{ID: "claim:1", SubjectID: "person:a", ObjectID: "event:1"}
	require.NoError(t, store.CreateClaim(ctx, claim))

	t.Run("matching version applies and bumps", func(t *testing.T) {
		claim.Score = 6
		claim.Status = domain.StatusApproved
		require.NoError(t, store.UpdateClaimAggregates(ctx, claim, 0))
		assert.Equal(t, 1, claim.Version)

		stored, err := store.FindClaim(ctx, "claim:1")
		require.NoError(t, err)
		assert.Equal(t, 6, stored.Score)
		assert.Equal(t, domain.StatusApproved, stored.Status)
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		err := store.UpdateClaimAggregates(ctx, claim, 0)
		assert.True(t, errors.IsConflict(err))
	})

	t.Run("unknown claim is not found", func(t *testing.T) {
		err := store.UpdateClaimAggregates(ctx, &domain.Claim{ID: "claim:ghost"}, 0)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestVotes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.UpsertVote(ctx, &domain.Vote{UserID: "user:a", ClaimID: "claim:1", Value: 1, Weight: 3}))
	require.NoError(t, store.UpsertVote(ctx, &domain.Vote{UserID: "user:b", ClaimID: "claim:1", Value: -1, Weight: 1}))
	require.NoError(t, store.UpsertVote(ctx, &domain.Vote{UserID: "user:a", ClaimID: "claim:1", Value: -1, Weight: 3}))

	votes, err := store.VotesByClaim(ctx, "claim:1")
	require.NoError(t, err)
	require.Len(t, votes, 2)
	// First-vote order survives the overwrite.
	assert.Equal(t, "user:a", votes[0].UserID)
	assert.Equal(t, -1, votes[0].Value)
	assert.Equal(t, "user:b", votes[1].UserID)
}

func TestSourcesAndEvidence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.CreateClaim(ctx, &domain.Claim{ID: "claim:1", SubjectID: "person:a", ObjectID: "event:1"}))

	t.Run("upsert keeps the first submitted metadata", func(t *testing.T) {
		require.NoError(t, store.UpsertSource(ctx, &domain.Source{ID: "src:url:x", Title: "Original"}))
		require.NoError(t, store.UpsertSource(ctx, &domain.Source{ID: "src:url:x", Title: "Replacement"}))
		require.NoError(t, store.LinkEvidence(ctx, "claim:1", "src:url:x", "user:a"))

		sources, err := store.SourcesByClaim(ctx, "claim:1")
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "Original", sources[0].Title)
	})

	t.Run("duplicate links are no-ops", func(t *testing.T) {
		require.NoError(t, store.LinkEvidence(ctx, "claim:1", "src:url:x", "user:b"))
		sources, err := store.SourcesByClaim(ctx, "claim:1")
		require.NoError(t, err)
		assert.Len(t, sources, 1)
	})

	t.Run("attach order is preserved", func(t *testing.T) {
		require.NoError(t, store.UpsertSource(ctx, &domain.Source{ID: "src:url:y", Title: "Second"}))
		require.NoError(t, store.LinkEvidence(ctx, "claim:1", "src:url:y", "user:a"))
		sources, err := store.SourcesByClaim(ctx, "claim:1")
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "src:url:x", sources[0].ID)
		assert.Equal(t, "src:url:y", sources[1].ID)
	})

	t.Run("linking to unknown claim fails", func(t *testing.T) {
		err := store.LinkEvidence(ctx, "claim:ghost", "src:url:x", "user:a")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUpdateEnrichmentMerge(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SavePerson(ctx, &domain.Person{
		ID:   "person:a",
		Name: "Alpha",
		Enrichment: domain.Enrichment{
			ShortDescription: "old description",
			WikipediaTitle:   "Alpha",
		},
	}))

	now := time.Now().UTC()
	require.NoError(t, store.UpdateEnrichment(ctx, "person:a", domain.KindPerson, domain.Enrichment{
		Summary:          "a long summary",
		SummaryUpdatedAt: &now,
	}))

	p, err := store.FindPerson(ctx, "person:a")
	require.NoError(t, err)
	assert.Equal(t, "old description", p.Enrichment.ShortDescription)
	assert.Equal(t, "Alpha", p.Enrichment.WikipediaTitle)
	assert.Equal(t, "a long summary", p.Enrichment.Summary)
	require.NotNil(t, p.Enrichment.SummaryUpdatedAt)

	err = store.UpdateEnrichment(ctx, "person:missing", domain.KindPerson, domain.Enrichment{})
	assert.True(t, errors.IsNotFound(err))
}
