package enrich

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

// stubFetcher counts calls and serves a canned summary.
type stubFetcher struct {
	summary *Summary
	err     error
	calls   int
}

func (f *stubFetcher) FetchSummary(_ context.Context, _ string) (*Summary, error) {
	f.calls++
	return f.summary, f.err
}

func adaSummary() *Summary {
	s := &Summary{
		Title:       "Ada Lovelace",
		Extract:     "Augusta Ada King, Countess of Lovelace...",
		Description: "English mathematician",
	}
	return s
}

func TestEntityDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is not found", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewService(store, nil, zap.NewNop())
		_, err := svc.EntityDetails(ctx, "person:ghost")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("person details without fetcher come straight from the store", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SavePerson(ctx, &domain.Person{
			ID: "person:ada", Name: "Ada Lovelace", WikidataID: "Q7259",
		}))
		svc := NewService(store, nil, zap.NewNop())

		details, err := svc.EntityDetails(ctx, "person:ada")
		require.NoError(t, err)
		assert.Equal(t, domain.KindPerson, details.Kind)
		assert.Equal(t, "Ada Lovelace", details.Name)
		assert.Empty(t, details.Summary)
	})

	t.Run("first access fetches and caches back onto the entity", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:ada", Name: "Ada Lovelace"}))
		fetcher := &stubFetcher{summary: adaSummary()}
		svc := NewService(store, fetcher, zap.NewNop())

		details, err := svc.EntityDetails(ctx, "person:ada")
		require.NoError(t, err)
		assert.Equal(t, "English mathematician", details.ShortDescription)
		assert.Equal(t, "Augusta Ada King, Countess of Lovelace...", details.Summary)
		require.NotNil(t, details.SummaryUpdatedAt)
		assert.Equal(t, 1, fetcher.calls)

		// Second access is served from the persisted enrichment.
		details, err = svc.EntityDetails(ctx, "person:ada")
		require.NoError(t, err)
		assert.Equal(t, "Augusta Ada King, Countess of Lovelace...", details.Summary)
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("fetch failure degrades to stored fields", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:ada", Name: "Ada Lovelace"}))
		fetcher := &stubFetcher{err: errors.NewExternalError("wikipedia", assert.AnError)}
		svc := NewService(store, fetcher, zap.NewNop())

		details, err := svc.EntityDetails(ctx, "person:ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", details.Name)
		assert.Empty(t, details.Summary)
	})

	t.Run("missing page leaves the entity untouched", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SavePerson(ctx, &domain.Person{ID: "person:obscure", Name: "Obscure Figure"}))
		fetcher := &stubFetcher{}
		svc := NewService(store, fetcher, zap.NewNop())

		details, err := svc.EntityDetails(ctx, "person:obscure")
		require.NoError(t, err)
		assert.Empty(t, details.Summary)
		assert.Nil(t, details.SummaryUpdatedAt)
	})

	t.Run("events resolve through the same lookup", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SaveEvent(ctx, &domain.Event{ID: "event:ww1", Name: "World War I"}))
		svc := NewService(store, nil, zap.NewNop())

		details, err := svc.EntityDetails(ctx, "event:ww1")
		require.NoError(t, err)
		assert.Equal(t, domain.KindEvent, details.Kind)
	})

	t.Run("stored wikipedia title drives the fetch", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SavePerson(ctx, &domain.Person{
			ID:   "person:ada",
			Name: "Ada",
			Enrichment: domain.Enrichment{
				WikipediaTitle: "Ada Lovelace",
			},
		}))

		var gotTitle string
		fetcher := &titleRecorder{record: &gotTitle}
		svc := NewService(store, fetcher, zap.NewNop())
		_, err := svc.EntityDetails(ctx, "person:ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", gotTitle)
	})
}

type titleRecorder struct {
	record *string
}

func (f *titleRecorder) FetchSummary(_ context.Context, title string) (*Summary, error) {
	*f.record = title
	return nil, nil
}
