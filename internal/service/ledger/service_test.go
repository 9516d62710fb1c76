package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository/memory"
	"worldgraph-backend/pkg/errors"
)

func newFixture(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, nil, zap.NewNop(), nil)

	ctx := context.Background()
	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:ada", Name: "Ada Lovelace"}))
	require.NoError(t, store.SaveEvent(ctx, &domain.Event{ID: "event:engine", Name: "Design of the Analytical Engine"}))

	users := []domain.User{
		{ID: "user:mod1", DisplayName: "Mod One", Role: domain.RoleMod},
		{ID: "user:mod2", DisplayName: "Mod Two", Role: domain.RoleMod},
		{ID: "user:mod3", DisplayName: "Mod Three", Role: domain.RoleMod},
		{ID: "user:mod4", DisplayName: "Mod Four", Role: domain.RoleMod},
		{ID: "user:trusted", DisplayName: "Trusted", Role: domain.RoleTrusted},
		{ID: "user:plain", DisplayName: "Plain", Role: domain.RoleUser},
	}
	for i := range users {
		require.NoError(t, store.UpsertUser(ctx, &users[i]))
	}
	return svc, store
}

func mustCreateClaim(t *testing.T, svc *Service) *domain.Claim {
	t.Helper()
	claim, err := svc.CreateClaim(context.Background(), "person:ada", "event:engine", "CONTRIBUTED_TO", "user:mod1")
	require.NoError(t, err)
	return claim
}

func TestCreateClaim(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	t.Run("starts pending with zeroed aggregates", func(t *testing.T) {
		claim := mustCreateClaim(t, svc)
		assert.Equal(t, domain.StatusPending, claim.Status)
		assert.Equal(t, domain.ClaimPersonEvent, claim.ClaimType)
		assert.Equal(t, "person:ada", claim.SubjectID)
		assert.Equal(t, "event:engine", claim.ObjectID)
		assert.Zero(t, claim.Score)
		assert.Zero(t, claim.UniqueVoters)
		assert.Zero(t, claim.EvidenceCount)
		assert.NotEmpty(t, claim.ID)
	})

	t.Run("rejects missing person", func(t *testing.T) {
		_, err := svc.CreateClaim(ctx, "person:nobody", "event:engine", "ATTENDED", "user:mod1")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("rejects missing event", func(t *testing.T) {
		_, err := svc.CreateClaim(ctx, "person:ada", "event:nothing", "ATTENDED", "user:mod1")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("rejects blank relationship type", func(t *testing.T) {
		_, err := svc.CreateClaim(ctx, "person:ada", "event:engine", "", "user:mod1")
		assert.True(t, errors.IsValidation(err))
	})
}

func TestAddEvidence(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()
	claim := mustCreateClaim(t, svc)

	t.Run("counts distinct sources", func(t *testing.T) {
		updated, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceNews,
			Title:      "First article",
			URL:        "https://example.com/one",
		}, "user:mod1")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.EvidenceCount)

		updated, err = svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceBook,
			Title:      "A book",
		}, "user:mod1")
		require.NoError(t, err)
		assert.Equal(t, 2, updated.EvidenceCount)
	})

	t.Run("same url twice is idempotent", func(t *testing.T) {
		updated, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceNews,
			Title:      "First article resubmitted",
			URL:        "https://example.com/one",
		}, "user:mod2")
		require.NoError(t, err)
		assert.Equal(t, 2, updated.EvidenceCount)
	})

	t.Run("requires a title", func(t *testing.T) {
		_, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceNews,
		}, "user:mod1")
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects unknown source type", func(t *testing.T) {
		_, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceType("BLOG"),
			Title:      "A blog post",
		}, "user:mod1")
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("unknown claim is not found", func(t *testing.T) {
		_, err := svc.AddEvidence(ctx, "claim:missing", EvidenceDescriptor{
			SourceType: domain.SourceNews,
			Title:      "Anything",
		}, "user:mod1")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()

	t.Run("weight follows the voter role", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		updated, err := svc.CastVote(ctx, "user:mod1", claim.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Score)

		updated, err = svc.CastVote(ctx, "user:trusted", claim.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Score)

		updated, err = svc.CastVote(ctx, "user:plain", claim.ID, -1)
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Score)
		assert.Equal(t, 6, updated.UpWeight)
		assert.Equal(t, 2, updated.DownWeight)
		assert.Equal(t, 3, updated.UniqueVoters)
	})

	t.Run("revote replaces instead of stacking", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		_, err := svc.CastVote(ctx, "user:mod1", claim.ID, 1)
		require.NoError(t, err)
		updated, err := svc.CastVote(ctx, "user:mod1", claim.ID, -1)
		require.NoError(t, err)
		assert.Equal(t, -3, updated.Score)
		assert.Equal(t, 1, updated.UniqueVoters)
	})

	t.Run("rejects values other than plus or minus one", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)
		_, err := svc.CastVote(ctx, "user:mod1", claim.ID, 2)
		assert.True(t, errors.IsValidation(err))
		_, err = svc.CastVote(ctx, "user:mod1", claim.ID, 0)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("unknown voter is not found", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)
		_, err := svc.CastVote(ctx, "user:ghost", claim.ID, 1)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("four moderator upvotes with evidence approve", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		_, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceWikidata,
			Title:      "Wikidata entry",
			URL:        "https://www.wikidata.org/wiki/Q7259",
		}, "user:mod1")
		require.NoError(t, err)

		var updated *domain.Claim
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			updated, err = svc.CastVote(ctx, voter, claim.ID, 1)
			require.NoError(t, err)
		}
		assert.Equal(t, 12, updated.Score)
		assert.Equal(t, 4, updated.UniqueVoters)
		assert.Equal(t, domain.StatusApproved, updated.Status)
	})

	t.Run("stays pending without evidence", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		var updated *domain.Claim
		var err error
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			updated, err = svc.CastVote(ctx, voter, claim.ID, 1)
			require.NoError(t, err)
		}
		assert.Equal(t, 12, updated.Score)
		assert.Equal(t, domain.StatusPending, updated.Status)
	})

	t.Run("evidence arrival triggers the pending approval", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			_, err := svc.CastVote(ctx, voter, claim.ID, 1)
			require.NoError(t, err)
		}

		updated, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourcePaper,
			Title:      "A paper",
			URL:        "https://example.com/paper",
		}, "user:mod1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, updated.Status)
	})

	t.Run("stays pending below voter minimum", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		_, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceNews,
			Title:      "An article",
		}, "user:mod1")
		require.NoError(t, err)

		var updated *domain.Claim
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3"} {
			updated, err = svc.CastVote(ctx, voter, claim.ID, 1)
			require.NoError(t, err)
		}
		assert.Equal(t, 9, updated.Score)
		assert.Equal(t, domain.StatusPending, updated.Status)
	})

	t.Run("heavy downvotes reject without evidence", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		var updated *domain.Claim
		var err error
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			updated, err = svc.CastVote(ctx, voter, claim.ID, -1)
			require.NoError(t, err)
		}
		assert.Equal(t, -12, updated.Score)
		assert.Equal(t, domain.StatusRejected, updated.Status)
	})

	t.Run("approved claim flips to rejected when the vote turns", func(t *testing.T) {
		svc, _ := newFixture(t)
		claim := mustCreateClaim(t, svc)

		_, err := svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{
			SourceType: domain.SourceNews,
			Title:      "An article",
		}, "user:mod1")
		require.NoError(t, err)
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			_, err = svc.CastVote(ctx, voter, claim.ID, 1)
			require.NoError(t, err)
		}

		var updated *domain.Claim
		for _, voter := range []string{"user:mod1", "user:mod2", "user:mod3", "user:mod4"} {
			updated, err = svc.CastVote(ctx, voter, claim.ID, -1)
			require.NoError(t, err)
		}
		assert.Equal(t, -12, updated.Score)
		assert.Equal(t, domain.StatusRejected, updated.Status)
	})

	t.Run("score is always derivable from the live vote set", func(t *testing.T) {
		svc, store := newFixture(t)
		claim := mustCreateClaim(t, svc)

		voters := []string{"user:mod1", "user:trusted", "user:plain"}
		values := []int{1, -1, 1}
		for i, voter := range voters {
			_, err := svc.CastVote(ctx, voter, claim.ID, values[i])
			require.NoError(t, err)
		}

		stored, err := store.FindClaim(ctx, claim.ID)
		require.NoError(t, err)
		votes, err := store.VotesByClaim(ctx, claim.ID)
		require.NoError(t, err)
		tally := domain.TallyVotes(votes)
		assert.Equal(t, tally.Score(), stored.Score)
		assert.Equal(t, tally.UpWeight, stored.UpWeight)
		assert.Equal(t, tally.DownWeight, stored.DownWeight)
		assert.Equal(t, tally.UniqueVoters, stored.UniqueVoters)
	})
}

func TestDynamicRules(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	rules := domain.StatusRules{ApproveScore: 2, RejectScore: -2, MinVoters: 1, MinEvidence: 1}
	svc := NewService(store, func() domain.StatusRules { return rules }, zap.NewNop(), nil)

	require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:ada", Name: "Ada Lovelace"}))
	require.NoError(t, store.SaveEvent(ctx, &domain.Event{ID: "event:engine", Name: "Analytical Engine"}))
	require.NoError(t, store.UpsertUser(ctx, &domain.User{ID: "user:mod", Role: domain.RoleMod}))

	claim, err := svc.CreateClaim(ctx, "person:ada", "event:engine", "CONTRIBUTED_TO", "user:mod")
	require.NoError(t, err)
	_, err = svc.AddEvidence(ctx, claim.ID, EvidenceDescriptor{SourceType: domain.SourceNews, Title: "x"}, "user:mod")
	require.NoError(t, err)

	updated, err := svc.CastVote(ctx, "user:mod", claim.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
}
