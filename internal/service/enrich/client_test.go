package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldgraph-backend/pkg/errors"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.BaseURL = "https://wiki.test/api/rest_v1/page/summary"
	cfg.RatePerSecond = 1000
	cfg.Timeout = time.Second
	client := NewClient(cfg, zap.NewNop(), nil)

	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestFetchSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the summary payload", func(t *testing.T) {
		client := newTestClient(t)
		httpmock.RegisterResponder("GET", "https://wiki.test/api/rest_v1/page/summary/Ada_Lovelace",
			httpmock.NewStringResponder(200, `{
				"title": "Ada Lovelace",
				"description": "English mathematician",
				"extract": "Augusta Ada King, Countess of Lovelace...",
				"thumbnail": {"source": "https://img.test/ada.jpg", "width": 320, "height": 240},
				"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Ada_Lovelace"}}
			}`))

		summary, err := client.FetchSummary(ctx, "Ada_Lovelace")
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, "Ada Lovelace", summary.Title)
		assert.Equal(t, "English mathematician", summary.Description)
		assert.Equal(t, "https://img.test/ada.jpg", summary.ThumbnailURL())
		assert.Equal(t, "https://en.wikipedia.org/wiki/Ada_Lovelace", summary.PageURL())
	})

	t.Run("missing page is nil not an error", func(t *testing.T) {
		client := newTestClient(t)
		httpmock.RegisterResponder("GET", "https://wiki.test/api/rest_v1/page/summary/Nobody",
			httpmock.NewStringResponder(404, `{"type":"not_found"}`))

		summary, err := client.FetchSummary(ctx, "Nobody")
		require.NoError(t, err)
		assert.Nil(t, summary)
	})

	t.Run("upstream failure is an external error", func(t *testing.T) {
		client := newTestClient(t)
		httpmock.RegisterResponder("GET", "https://wiki.test/api/rest_v1/page/summary/Broken",
			httpmock.NewStringResponder(503, `{}`))

		_, err := client.FetchSummary(ctx, "Broken")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	})

	t.Run("successful summaries are cached", func(t *testing.T) {
		client := newTestClient(t)
		httpmock.RegisterResponder("GET", "https://wiki.test/api/rest_v1/page/summary/Cached",
			httpmock.NewStringResponder(200, `{"title": "Cached", "extract": "text"}`))

		_, err := client.FetchSummary(ctx, "Cached")
		require.NoError(t, err)
		_, err = client.FetchSummary(ctx, "Cached")
		require.NoError(t, err)
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
}
